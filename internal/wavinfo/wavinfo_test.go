package wavinfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/soundkeeper/taketake/internal/wavinfo"
)

func writeTestWAV(t *testing.T, path string, seconds int, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, seconds*sampleRate)
	for i := range data {
		data[i] = i % 100
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	writeTestWAV(t, path, 2, 8000)

	header, err := wavinfo.ReadHeader(path)
	require.NoError(t, err)
	require.Equal(t, 8000, header.SampleRate)
	require.Equal(t, 1, header.Channels)
	require.Equal(t, 16, header.BitDepth)
	require.InDelta(t, 2.0, header.Duration.Seconds(), 0.05)
}

func TestExtractPrefixShorterThanSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	writeTestWAV(t, path, 5, 8000)

	prefix, err := wavinfo.ExtractPrefix(path, 1)
	require.NoError(t, err)
	require.NotEmpty(t, prefix)

	tmp := filepath.Join(t.TempDir(), "prefix.wav")
	require.NoError(t, os.WriteFile(tmp, prefix, 0o600))

	header, err := wavinfo.ReadHeader(tmp)
	require.NoError(t, err)
	require.InDelta(t, 1.0, header.Duration.Seconds(), 0.05)
}

func TestExtractPrefixLongerThanSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	writeTestWAV(t, path, 1, 8000)

	prefix, err := wavinfo.ExtractPrefix(path, 20)
	require.NoError(t, err)
	require.NotEmpty(t, prefix)
}
