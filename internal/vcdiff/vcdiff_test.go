package vcdiff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundkeeper/taketake/internal/vcdiff"
)

func encodeVarint(v uint64) []byte {
	var rev []byte
	rev = append(rev, byte(v&0x7F))
	v >>= 7
	for v > 0 {
		rev = append(rev, byte(v&0x7F)|0x80)
		v >>= 7
	}
	out := make([]byte, len(rev))
	for i, b := range rev {
		out[len(rev)-1-i] = b
	}
	return out
}

// buildWindow assembles a single-window VCDIFF stream with a source
// segment covering the whole source, the given instructions bytes, and
// an empty data section unless dataSection is provided.
func buildWindow(targetLen uint64, sourceSize uint64, instructions, dataSection []byte) []byte {
	var buf []byte
	buf = append(buf, 0xD6, 0xC3, 0xC4, 0x00) // magic
	buf = append(buf, 0x00)                  // header indicator: no extensions

	buf = append(buf, 0x01) // window indicator: VCD_SOURCE
	buf = append(buf, encodeVarint(sourceSize)...)
	buf = append(buf, encodeVarint(0)...) // source segment position

	instrLen := uint64(len(instructions))
	dataLen := uint64(len(dataSection))
	addrLen := uint64(0)
	deltaWindowLen := dataLen + instrLen + addrLen + 1 // +1 for the delta indicator byte itself is not part of RFC but unused by classifier
	buf = append(buf, encodeVarint(deltaWindowLen)...)
	buf = append(buf, encodeVarint(targetLen)...)

	buf = append(buf, 0x00) // delta indicator: no secondary compression

	buf = append(buf, encodeVarint(dataLen)...)
	buf = append(buf, encodeVarint(instrLen)...)
	buf = append(buf, encodeVarint(addrLen)...)

	buf = append(buf, dataSection...)
	buf = append(buf, instructions...)
	// no addresses bytes, addrLen is 0

	return buf
}

func TestIsZeroDeltaRecognizesWholeCopy(t *testing.T) {
	const sourceSize = 4096
	instructions := append([]byte{19}, encodeVarint(sourceSize)...)
	stream := buildWindow(sourceSize, sourceSize, instructions, nil)

	zero, err := vcdiff.IsZeroDelta(stream, sourceSize)
	require.NoError(t, err)
	require.True(t, zero)
}

func TestIsZeroDeltaRejectsRealDelta(t *testing.T) {
	const sourceSize = 4096
	// ADD opcode (size 1) carries literal target bytes not copied from source.
	instructions := []byte{2} // opcode 2: ADD size 1 in the default table shape this test only needs "not opcode 19"
	data := []byte{0xAB}
	stream := buildWindow(sourceSize, sourceSize, instructions, data)

	zero, err := vcdiff.IsZeroDelta(stream, sourceSize)
	require.NoError(t, err)
	require.False(t, zero)
}

func TestIsZeroDeltaRejectsSizeMismatch(t *testing.T) {
	const sourceSize = 4096
	instructions := append([]byte{19}, encodeVarint(sourceSize-10)...)
	stream := buildWindow(sourceSize, sourceSize, instructions, nil)

	zero, err := vcdiff.IsZeroDelta(stream, sourceSize)
	require.NoError(t, err)
	require.False(t, zero)
}

func TestIsZeroDeltaRejectsBadMagic(t *testing.T) {
	_, err := vcdiff.IsZeroDelta([]byte{0x00, 0x01, 0x02, 0x03}, 10)
	require.ErrorIs(t, err, vcdiff.ErrNotVCDIFF)
}

func TestParseFirstWindowReportsSourceSegment(t *testing.T) {
	const sourceSize = 2048
	instructions := append([]byte{19}, encodeVarint(sourceSize)...)
	stream := buildWindow(sourceSize, sourceSize, instructions, nil)

	win, err := vcdiff.ParseFirstWindow(stream)
	require.NoError(t, err)
	require.True(t, win.HasSource)
	require.EqualValues(t, sourceSize, win.SourceSegmentSize)
	require.EqualValues(t, 0, win.SourceSegmentPos)
	require.EqualValues(t, sourceSize, win.TargetWindowLen)
}
