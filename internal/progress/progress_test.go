package progress_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soundkeeper/taketake/internal/progress"
)

func TestCreateAndDiscoverRoundTrip(t *testing.T) {
	parent := t.TempDir()
	source := filepath.Join(parent, "usb")
	require.NoError(t, os.Mkdir(source, 0o755))

	now := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	created, err := progress.Create(source, now)
	require.NoError(t, err)
	require.DirExists(t, created.Dir)

	discovered, ok, err := progress.Discover(source)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, created.Dir, discovered.Dir)
}

func TestDiscoverNoneFound(t *testing.T) {
	parent := t.TempDir()
	source := filepath.Join(parent, "usb")
	require.NoError(t, os.Mkdir(source, 0o755))

	_, ok, err := progress.Discover(source)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDiscoverMismatchedSrcFails(t *testing.T) {
	parent := t.TempDir()
	source := filepath.Join(parent, "usb")
	other := filepath.Join(parent, "other")
	require.NoError(t, os.Mkdir(source, 0o755))
	require.NoError(t, os.Mkdir(other, 0o755))

	_, err := progress.Create(other, time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC))
	require.NoError(t, err)

	_, _, err = progress.Discover(source)
	require.Error(t, err)
}

func TestMarkerAtomicWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, progress.FilenameGuess)

	_, exists, err := progress.ReadMarker(path)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, progress.WriteMarkerAtomic(path, "piano.20211106-104400-Sat.audio001"))

	content, exists, err := progress.ReadMarker(path)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "piano.20211106-104400-Sat.audio001", content)
}

func TestZeroByteEntries(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.par2")
	zero := filepath.Join(dir, "b.par2")
	require.NoError(t, os.WriteFile(good, []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(zero, nil, 0o644))

	entries, err := progress.ZeroByteEntries([]string{good, zero, filepath.Join(dir, "missing.par2")})
	require.NoError(t, err)
	require.Equal(t, []string{zero}, entries)
}
