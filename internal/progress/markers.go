package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marker filenames inside a per-file progress directory (spec.md §3).
const (
	FilenameGuess    = ".filename_guess"
	FilenameProvided = ".filename_provided"
	InProgressFlac   = ".in_progress.flac"
	EncodedFlac      = ".encoded.flac"
	XdeltaFile       = ".xdelta"
)

// ReadMarker reads a marker file's contents, reporting exists=false (not
// an error) when the marker is absent — the idempotence-witness contract
// every stage's resume check relies on.
func ReadMarker(path string) (content string, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read marker %q: %w", path, err)
	}
	return strings.TrimRight(string(data), "\n"), true, nil
}

// WriteMarkerAtomic writes content to path via write-temp-then-rename, so a
// crash never leaves a partially-written marker behind (spec.md §4.3's
// "write .filename_guess atomically").
func WriteMarkerAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp marker in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp marker %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp marker %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp marker %q -> %q: %w", tmpPath, path, err)
	}
	return nil
}

// Exists reports whether path exists, treating any stat error other than
// "not exist" as a caller-visible failure.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %q: %w", path, err)
}

// ZeroByteEntries filters paths to those that exist and are zero bytes —
// invariant I3's corruption witness.
func ZeroByteEntries(paths []string) ([]string, error) {
	var zero []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}
		if info.Size() == 0 {
			zero = append(zero, p)
		}
	}
	return zero, nil
}
