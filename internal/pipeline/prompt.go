package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/progress"
	"github.com/soundkeeper/taketake/internal/prompter"
	"github.com/soundkeeper/taketake/internal/talkytime"
)

// runPrompt implements spec.md §4.4: the external prompt tool is a single
// serialized resource (only one file is ever prompted at a time), so this
// stage processes tokens one at a time even though every other stage is
// free to run its per-file work concurrently.
func runPrompt(ctx context.Context, cfg config.Config, logger *slog.Logger, p prompter.Prompter, files []*FileInfo, in <-chan Token, out chan<- Token) {
	defer close(out)

	var serialize sync.Mutex
	for tok := range in {
		fi := files[tok.Index]
		if tok.Failed {
			out <- tok
			continue
		}

		serialize.Lock()
		err := promptOne(ctx, cfg, p, fi)
		serialize.Unlock()

		if err != nil {
			logger.Error("prompt failed", "file", fi.SourceBasename, "error", err.Error())
			tok.Failed = true
		}
		out <- tok
	}
}

func promptOne(ctx context.Context, cfg config.Config, p prompter.Prompter, fi *FileInfo) error {
	providedPath := filepath.Join(fi.ProgressDir, progress.FilenameProvided)

	if content, exists, err := progress.ReadMarker(providedPath); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	} else if exists {
		fi.ProvidedName = content
		return nil
	}

	guess := talkytime.BuildFilename(cfg.Prefix, fi.GuessedTimestamp, fi.Runtime, cfg.Instrument, "", fi.SourceBasename)
	bounds := talkytime.ValidationBounds{MaxDelta: cfg.Prompt.MaxDelta, Now: time.Now()}

	provided, _, err := prompter.ValidateAndConfirm(ctx, p, guess, fi.GuessedTimestamp, bounds)
	if err != nil {
		fi.Fail(PromptValidation, err)
		return err
	}

	if err := progress.WriteMarkerAtomic(providedPath, provided); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}

	fi.ProvidedName = provided
	return nil
}
