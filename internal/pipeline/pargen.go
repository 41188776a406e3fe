package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/soundkeeper/taketake/internal/cachehint"
	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/par2"
)

// runPargen implements spec.md §4.6: once both flacenc's encoded FLAC and
// prompt's confirmed name are ready for a file, create the "name
// committed" symlink, ensure a healthy parity-volume set exists for it
// (regenerating it whole whenever any volume is zero bytes, invariant
// I3), and verify the set is recoverable. flacencIn and promptIn carry
// the same files in the same order (both upstream stages are serial
// per-file loops that never reorder their input), so pargen joins them by
// position rather than needing an index-keyed rendezvous map.
func runPargen(ctx context.Context, cfg config.Config, logger *slog.Logger, files []*FileInfo, flacencIn, promptIn <-chan Token, out chan<- Token) {
	defer close(out)

	for range files {
		flacTok, ok := <-flacencIn
		if !ok {
			return
		}
		promptTok, ok := <-promptIn
		if !ok {
			return
		}

		tok := flacTok
		if promptTok.Failed {
			tok.Failed = true
		}

		fi := files[tok.Index]
		if !tok.Failed {
			if err := pargenOne(ctx, cfg, fi); err != nil {
				logger.Error("par2 step failed", "file", fi.SourceBasename, "error", err.Error())
				tok.Failed = true
			}
		}
		out <- tok
	}
}

func pargenOne(ctx context.Context, cfg config.Config, fi *FileInfo) error {
	fi.FinalName = flacFilename(fi.ProvidedName, fi.SourceBasename)
	providedPath := filepath.Join(fi.ProgressDir, fi.FinalName)

	if err := ensureProvidedSymlink(providedPath, fi.EncodedPath); err != nil {
		fi.Fail(Par2CreateFail, err)
		return err
	}

	if err := par2.EnsureSet(ctx, cfg.Tools, cfg.Par2, providedPath); err != nil {
		fi.Fail(Par2CreateFail, err)
		return err
	}
	if err := par2.Verify(ctx, cfg.Tools, providedPath); err != nil {
		fi.Fail(Par2VerifyFail, err)
		return err
	}

	if err := cachehint.Drop(fi.EncodedPath); err != nil {
		return nil
	}
	if err := cachehint.ConfirmEvicted(ctx, fi.EncodedPath, cfg.Evict.PollTimeout, cfg.Evict.PollInterval); err != nil {
		fi.Fail(EvictFail, err)
		return err
	}

	return nil
}

// ensureProvidedSymlink creates providedPath -> encodedPath if absent,
// spec.md §3's "symlink presence = name committed" witness and §4.6 step
// 1. A symlink already present (from a prior run) is left untouched,
// satisfying invariant I5's idempotence contract for this step.
func ensureProvidedSymlink(providedPath, encodedPath string) error {
	if _, err := os.Lstat(providedPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", providedPath, err)
	}

	target, err := filepath.Rel(filepath.Dir(providedPath), encodedPath)
	if err != nil {
		target = encodedPath
	}
	if err := os.Symlink(target, providedPath); err != nil {
		return fmt.Errorf("symlink %q -> %q: %w", providedPath, target, err)
	}
	return nil
}
