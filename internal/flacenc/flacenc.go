// Package flacenc wraps the external FLAC encoder invocation of spec.md
// §4.5: delete any stale .in_progress.flac, encode, validate the result
// (invariant I2), then atomically rename to .encoded.flac and advise the
// page cache to drop the source.
package flacenc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/soundkeeper/taketake/internal/cachehint"
	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/flacvalidate"
)

// ErrEncodeFail classifies external-encoder failures into the
// ErrorKind spec.md §7 names (EncodeFail).
var ErrEncodeFail = fmt.Errorf("flacenc: encode failed")

// ErrEvictFail classifies a page-cache eviction that never confirms,
// the ErrorKind spec.md §7 names (EvictFail).
var ErrEvictFail = fmt.Errorf("flacenc: cache eviction did not confirm")

// Encode runs tools.FlacEncode against sourcePath, writing to inProgressPath
// first and renaming to encodedPath only once flacvalidate confirms the
// output is structurally complete. Any .in_progress.flac left over from a
// prior crashed run is removed before encoding starts (spec.md §4.5 step 1)
// since a partial encode can never be resumed, only redone.
func Encode(ctx context.Context, logger *slog.Logger, tools config.ToolsConfig, evict config.EvictConfig, sourcePath, inProgressPath, encodedPath string) error {
	if len(tools.FlacEncode.Argv) == 0 {
		return fmt.Errorf("%w: tools.flac_encode is not configured", ErrEncodeFail)
	}

	if err := removeStale(inProgressPath); err != nil {
		return err
	}

	argv := append([]string{}, tools.FlacEncode.Argv...)
	argv = append(argv, "-o", inProgressPath, sourcePath)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		os.Remove(inProgressPath)
		return fmt.Errorf("%w: %v", ErrEncodeFail, err)
	}

	if err := flacvalidate.Validate(inProgressPath); err != nil {
		os.Remove(inProgressPath)
		return fmt.Errorf("%w: encoded output failed validation: %v", ErrEncodeFail, err)
	}

	if err := os.Rename(inProgressPath, encodedPath); err != nil {
		return fmt.Errorf("%w: rename %q -> %q: %v", ErrEncodeFail, inProgressPath, encodedPath, err)
	}

	if err := cachehint.Drop(sourcePath); err != nil {
		if logger != nil {
			logger.Warn("cache eviction advisory failed", "path", sourcePath, "error", err.Error())
		}
		return nil
	}

	if err := cachehint.ConfirmEvicted(ctx, sourcePath, evict.PollTimeout, evict.PollInterval); err != nil {
		if logger != nil {
			logger.Warn("cache eviction never confirmed", "path", sourcePath, "error", err.Error())
		}
		return fmt.Errorf("%w: %v", ErrEvictFail, err)
	}

	return nil
}

// removeStale deletes any leftover .in_progress.flac from an earlier
// crashed attempt; its presence never proves anything about completeness
// (invariant I2), so it is always safe to discard and re-encode.
func removeStale(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: remove stale in-progress artifact %q: %v", ErrEncodeFail, path, err)
	}
	return nil
}
