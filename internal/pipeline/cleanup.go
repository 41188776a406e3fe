package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/par2"
	"github.com/soundkeeper/taketake/internal/progress"
)

// runCleanup implements spec.md §4.8's fan-in barrier: it must observe
// every file's xdelta outcome before it performs any destructive action
// on any file, since a late XdeltaMismatch elsewhere says nothing about
// files that already passed, but the filesystem-wide progress-directory
// bookkeeping is only safe to finalize once the whole cohort is known.
// pargen's output channel (which already folds in prompt's outcome, since
// pargen itself joins flacenc and prompt) is drained concurrently with
// the xdelta barrier; waiting on the xdelta channel's close and then on
// the drain goroutine's signal guarantees every stage has recorded its
// outcome on each FileInfo before cleanup reads it.
func runCleanup(ctx context.Context, cfg config.Config, logger *slog.Logger, files []*FileInfo, pargenIn, xdeltaIn <-chan Token, out chan<- Token) {
	defer close(out)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range pargenIn {
		}
	}()

	for range xdeltaIn {
	}
	<-drained

	for _, fi := range files {
		if !fi.Failed() {
			if err := finalizeFile(ctx, cfg, fi); err != nil {
				logger.Error("cleanup failed", "file", fi.SourceBasename, "error", err.Error())
			}
		}
		if fi.Failed() {
			kind, err := fi.Outcome()
			logger.Error("file did not complete", "file", fi.SourceBasename, "kind", kind, "error", err)
		} else {
			logger.Info("file transferred", "file", fi.SourceBasename, "dest", fi.FinalPath)
		}
		out <- Token{Index: fi.Index, Failed: fi.Failed()}
	}
}

// finalizeFile implements spec.md §4.8: when cfg.ModifySource allows
// touching the source tree, copy the operator-confirmed FLAC and its
// parity volumes back to <cfg.Source>/flacs/ (skip-if-present, matching
// invariant I5) and verify that copied-back set is recoverable before
// anything destructive happens; stamp every copy's mtime to the file's
// recognized timestamp (step 2/5); copy the same artifacts to cfg.Dest;
// and only once the copy-back is proven — satisfying invariant I1 —
// remove the source recording when cfg.ModifySource allows it, then the
// per-file progress directory.
func finalizeFile(ctx context.Context, cfg config.Config, fi *FileInfo) error {
	if fi.FinalName == "" {
		fi.FinalName = flacFilename(fi.ProvidedName, fi.SourceBasename)
	}
	finalName := fi.FinalName
	fi.FinalPath = filepath.Join(cfg.Dest, finalName)

	providedPath := filepath.Join(fi.ProgressDir, finalName)
	vols, err := par2.VolumePaths(providedPath)
	if err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}

	copySource := providedPath
	if cfg.ModifySource {
		flacsDir := filepath.Join(cfg.Source, "flacs")
		if err := os.MkdirAll(flacsDir, 0o755); err != nil {
			fi.Fail(ProgressWriteFail, err)
			return err
		}

		flacsPath := filepath.Join(flacsDir, finalName)
		if exists, err := progress.Exists(flacsPath); err != nil {
			fi.Fail(ProgressWriteFail, err)
			return err
		} else if !exists {
			if err := copyArtifactSet(providedPath, flacsPath, vols); err != nil {
				fi.Fail(ProgressWriteFail, err)
				return err
			}
		}
		if err := stampMtime(flacsPath, fi.GuessedTimestamp.Time); err != nil {
			fi.Fail(ProgressWriteFail, err)
			return err
		}

		if err := par2.Verify(ctx, cfg.Tools, flacsPath); err != nil {
			fi.Fail(CopybackVerifyFail, err)
			return err
		}
		copySource = flacsPath
	}

	if err := os.MkdirAll(cfg.Dest, 0o755); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}
	if err := copyArtifactSet(copySource, fi.FinalPath, vols); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}
	if err := stampMtime(fi.FinalPath, fi.GuessedTimestamp.Time); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}

	if cfg.ModifySource {
		if err := os.Remove(fi.SourcePath); err != nil {
			fi.Fail(ProgressWriteFail, err)
			return err
		}
	}

	if err := os.RemoveAll(fi.ProgressDir); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}

	return nil
}

// copyArtifactSet copies src's FLAC bytes plus its par2 volumes (named
// from vols, which were globbed against providedPath) to dst and dst's
// sibling volume names, preserving each volume's own suffix.
func copyArtifactSet(src, dst string, vols []string) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}

	srcBase := filepath.Base(src)
	dstName := filepath.Base(dst)
	for _, v := range vols {
		suffix := strings.TrimPrefix(filepath.Base(v), srcBase)
		if err := copyFile(v, filepath.Join(filepath.Dir(dst), dstName+suffix)); err != nil {
			return err
		}
	}
	return nil
}

// stampMtime sets path's mtime (and atime) to ts, spec.md §4.8's "copy
// carries the recognized timestamp forward" step. A zero ts is left
// alone: it means no timestamp was ever recognized for this file, which
// finalizeFile's caller never reaches (listen always sets
// GuessedTimestamp before a file can succeed through to cleanup).
func stampMtime(path string, ts time.Time) error {
	if ts.IsZero() {
		return nil
	}
	if err := os.Chtimes(path, ts, ts); err != nil {
		return fmt.Errorf("set mtime on %q: %w", path, err)
	}
	return nil
}

// copyFile copies src to dst via a temp-file-then-rename, so a crash
// mid-copy never leaves a partially-written destination artifact behind.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", filepath.Dir(dst), err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy %q -> %q: %w", src, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %q -> %q: %w", tmpPath, dst, err)
	}
	return nil
}
