//go:build linux

package cachehint

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func available() error {
	return nil
}

// drop opens path and issues FADV_DONTNEED over its full extent, matching
// the advisory flacenc/pargen invoke after writing artifacts (§4.5/§4.6/§6).
func drop(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q for cache-drop advisory: %w", path, err)
	}
	defer f.Close()

	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED); err != nil {
		return fmt.Errorf("fadvise(FADV_DONTNEED) %q: %w", path, err)
	}
	return nil
}

// resident mmaps path read-only and inspects the kernel's residency bitmap
// via mincore, the mechanism pargen step 5 / xdelta step 2 poll on.
func resident(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %q for residency check: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return false, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_NONE, unix.MAP_SHARED)
	if err != nil {
		return false, fmt.Errorf("mmap %q: %w", path, err)
	}
	defer func() { _ = unix.Munmap(data) }()

	pageSize := os.Getpagesize()
	pages := (int(size) + pageSize - 1) / pageSize
	vec := make([]byte, pages)
	if err := unix.Mincore(data, vec); err != nil {
		return false, fmt.Errorf("mincore %q: %w", path, err)
	}

	for _, b := range vec {
		if b&1 != 0 {
			return true, nil
		}
	}
	return false, nil
}
