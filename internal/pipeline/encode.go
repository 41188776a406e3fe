package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/flacenc"
	"github.com/soundkeeper/taketake/internal/flacvalidate"
)

// runFlacenc implements spec.md §4.5 and fans its output to both pargen and
// xdelta, which depend only on the encoded artifact existing, not on each
// other.
func runFlacenc(ctx context.Context, cfg config.Config, logger *slog.Logger, files []*FileInfo, in <-chan Token, toPargen, toXdelta chan<- Token) {
	defer close(toPargen)
	defer close(toXdelta)

	for tok := range in {
		fi := files[tok.Index]
		if !tok.Failed {
			if err := encodeOne(ctx, cfg, logger, fi); err != nil {
				logger.Error("encode failed", "file", fi.SourceBasename, "error", err.Error())
				tok.Failed = true
			}
		}
		toPargen <- tok
		toXdelta <- tok
	}
}

// encodeOne skips re-encoding when a prior run already produced a valid
// .encoded.flac — the resume contract invariant I5 names. A file that
// exists but fails validation is itself invariant I2's witness of a crash
// mid-write; encodeOne deletes it and flacenc.Encode redoes the encode.
func encodeOne(ctx context.Context, cfg config.Config, logger *slog.Logger, fi *FileInfo) error {
	if _, err := os.Stat(fi.EncodedPath); err == nil {
		if err := flacvalidate.Validate(fi.EncodedPath); err == nil {
			return nil
		}
		os.Remove(fi.EncodedPath)
	}

	if err := flacenc.Encode(ctx, logger, cfg.Tools, cfg.Evict, fi.SourcePath, fi.InProgressPath, fi.EncodedPath); err != nil {
		kind := EncodeFail
		if errors.Is(err, flacenc.ErrEvictFail) {
			kind = EvictFail
		}
		fi.Fail(kind, err)
		return err
	}
	return nil
}
