package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/soundkeeper/taketake/internal/cachehint"
	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/progress"
	"github.com/soundkeeper/taketake/internal/xdeltacheck"
)

// runXdelta implements spec.md §4.7: confirm the source recording's pages
// are evicted from the page cache, decode the encoded FLAC back to PCM,
// and diff it against the original source, proving the round trip is
// lossless before cleanup is ever allowed to touch the source.
func runXdelta(ctx context.Context, cfg config.Config, logger *slog.Logger, files []*FileInfo, in <-chan Token, out chan<- Token) {
	defer close(out)

	for tok := range in {
		fi := files[tok.Index]
		if !tok.Failed {
			if err := xdeltaOne(ctx, cfg, fi); err != nil {
				logger.Error("xdelta check failed", "file", fi.SourceBasename, "error", err.Error())
				tok.Failed = true
			}
		}
		out <- tok
	}
}

// xdeltaOne implements spec.md §4.7 steps 1-3: skip re-running either
// external tool when a prior run already left a classifiable .xdelta
// artifact (the resume contract invariant I5 names), otherwise confirm the
// source is evicted from the page cache before spending the decode/diff
// round trip on it.
func xdeltaOne(ctx context.Context, cfg config.Config, fi *FileInfo) error {
	xdeltaPath := filepath.Join(fi.ProgressDir, progress.XdeltaFile)

	if exists, err := progress.Exists(xdeltaPath); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	} else if exists {
		ok, err := xdeltacheck.ClassifyFile(fi.SourcePath, xdeltaPath)
		if err != nil || !ok {
			fi.Fail(XdeltaMismatch, err)
			return err
		}
		return nil
	}

	if err := cachehint.ConfirmEvicted(ctx, fi.SourcePath, cfg.Evict.PollTimeout, cfg.Evict.PollInterval); err != nil {
		fi.Fail(EvictFail, err)
		return err
	}

	ok, err := xdeltacheck.Check(ctx, cfg.Tools, fi.SourcePath, fi.EncodedPath, xdeltaPath)
	if err != nil || !ok {
		fi.Fail(XdeltaMismatch, err)
		return err
	}
	return nil
}
