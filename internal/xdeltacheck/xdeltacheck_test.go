package xdeltacheck_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/xdeltacheck"
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

func buildZeroDeltaStream(sourceSize uint64) []byte {
	var buf []byte
	buf = append(buf, 0xD6, 0xC3, 0xC4, 0x00)
	buf = append(buf, 0x00)
	buf = append(buf, 0x01)
	buf = append(buf, encodeVarint(sourceSize)...)
	buf = append(buf, encodeVarint(0)...)

	instructions := append([]byte{19}, encodeVarint(sourceSize)...)
	buf = append(buf, encodeVarint(uint64(len(instructions))+1)...)
	buf = append(buf, encodeVarint(sourceSize)...)
	buf = append(buf, 0x00)
	buf = append(buf, encodeVarint(0)...)
	buf = append(buf, encodeVarint(uint64(len(instructions)))...)
	buf = append(buf, encodeVarint(0)...)
	buf = append(buf, instructions...)
	return buf
}

func TestCheckRecognizesZeroDelta(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("sixteen-byte-pcm"), 0o644))
	flac := filepath.Join(dir, "encoded.flac")
	require.NoError(t, os.WriteFile(flac, []byte("flac-bytes"), 0o644))

	stream := buildZeroDeltaStream(uint64(len("sixteen-byte-pcm")))
	encoded := base64.StdEncoding.EncodeToString(stream)

	tools := config.ToolsConfig{
		FlacDecode: config.CommandConfig{Argv: []string{"sh", "-c", `cat "$0"`, flac}},
		Xdelta3:    config.CommandConfig{Argv: []string{"sh", "-c", `cat <&0 >/dev/null; echo ` + encoded + ` | base64 -d`}},
	}

	ok, err := xdeltacheck.Check(context.Background(), tools, source, flac, filepath.Join(dir, ".xdelta"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckWritesXdeltaArtifactClassifiableOnResume(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("sixteen-byte-pcm"), 0o644))
	flac := filepath.Join(dir, "encoded.flac")
	require.NoError(t, os.WriteFile(flac, []byte("flac-bytes"), 0o644))
	xdeltaPath := filepath.Join(dir, ".xdelta")

	stream := buildZeroDeltaStream(uint64(len("sixteen-byte-pcm")))
	encoded := base64.StdEncoding.EncodeToString(stream)

	tools := config.ToolsConfig{
		FlacDecode: config.CommandConfig{Argv: []string{"sh", "-c", `cat "$0"`, flac}},
		Xdelta3:    config.CommandConfig{Argv: []string{"sh", "-c", `cat <&0 >/dev/null; echo ` + encoded + ` | base64 -d`}},
	}

	ok, err := xdeltacheck.Check(context.Background(), tools, source, flac, xdeltaPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.FileExists(t, xdeltaPath)

	ok, err = xdeltacheck.ClassifyFile(source, xdeltaPath)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckReportsMismatchOnRealDelta(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("original"), 0o644))
	flac := filepath.Join(dir, "encoded.flac")
	require.NoError(t, os.WriteFile(flac, []byte("flac-bytes"), 0o644))

	tools := config.ToolsConfig{
		FlacDecode: config.CommandConfig{Argv: []string{"sh", "-c", `cat "$0"`, flac}},
		Xdelta3:    config.CommandConfig{Argv: []string{"sh", "-c", `cat <&0 >/dev/null; printf 'not-a-vcdiff-stream'`}},
	}

	ok, err := xdeltacheck.Check(context.Background(), tools, source, flac, filepath.Join(dir, ".xdelta"))
	require.ErrorIs(t, err, xdeltacheck.ErrMismatch)
	require.False(t, ok)
}

func TestCheckPropagatesDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("original"), 0o644))
	flac := filepath.Join(dir, "encoded.flac")
	require.NoError(t, os.WriteFile(flac, []byte("flac-bytes"), 0o644))

	tools := config.ToolsConfig{
		FlacDecode: config.CommandConfig{Argv: []string{"false"}},
		Xdelta3:    config.CommandConfig{Argv: []string{"false"}},
	}

	ok, err := xdeltacheck.Check(context.Background(), tools, source, flac, filepath.Join(dir, ".xdelta"))
	require.ErrorIs(t, err, xdeltacheck.ErrMismatch)
	require.False(t, ok)
}
