package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/progress"
	"github.com/soundkeeper/taketake/internal/speechtotext"
	"github.com/soundkeeper/taketake/internal/talkytime"
	"github.com/soundkeeper/taketake/internal/wavinfo"
)

// runListen implements spec.md §4.3: extract the source recording's
// bounded prefix, recognize its spoken timestamp, and write the
// .filename_guess marker. A marker already on disk short-circuits the
// speech-to-text round trip entirely — the resume contract invariant I5
// names.
func runListen(ctx context.Context, cfg config.Config, logger *slog.Logger, files []*FileInfo, in <-chan Token, out chan<- Token) {
	defer close(out)

	for tok := range in {
		fi := files[tok.Index]
		if tok.Failed {
			out <- tok
			continue
		}

		if err := listenOne(ctx, cfg, fi); err != nil {
			logger.Error("listen failed", "file", fi.SourceBasename, "error", err.Error())
			tok.Failed = true
		}
		out <- tok
	}
}

func listenOne(ctx context.Context, cfg config.Config, fi *FileInfo) error {
	guessPath := filepath.Join(fi.ProgressDir, progress.FilenameGuess)

	if content, exists, err := progress.ReadMarker(guessPath); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	} else if exists {
		ts, err := talkytime.ParseFilenameTimestamp(content)
		if err != nil {
			fi.Fail(TimestampParseFail, err)
			return err
		}
		fi.GuessedTimestamp = ts
		if err := setRuntime(fi); err != nil {
			fi.Fail(SetupFail, err)
			return err
		}
		return nil
	}

	header, err := wavinfo.ReadHeader(fi.SourcePath)
	if err != nil {
		fi.Fail(SpeechRecogFail, err)
		return err
	}
	fi.Runtime = header.Duration

	prefix, err := wavinfo.ExtractPrefix(fi.SourcePath, cfg.Speech.PrefixSeconds)
	if err != nil {
		fi.Fail(SpeechRecogFail, err)
		return err
	}

	tokens, err := speechtotext.Recognize(ctx, cfg.Tools.SpeechToText.Argv, prefix, cfg.Speech.Timeout, cfg.Speech.Retries)
	if err != nil {
		fi.Fail(SpeechRecogFail, err)
		return err
	}

	ts, err := talkytime.ParseTokens(tokens)
	if err != nil {
		fi.Fail(TimestampParseFail, err)
		return err
	}
	fi.GuessedTimestamp = ts

	guess := talkytime.BuildFilename(cfg.Prefix, ts, fi.Runtime, cfg.Instrument, "", fi.SourceBasename)
	if err := progress.WriteMarkerAtomic(guessPath, guess); err != nil {
		fi.Fail(ProgressWriteFail, err)
		return err
	}

	return nil
}

// setRuntime fills fi.Runtime from the source header on a resumed run,
// where listenOne's speech-to-text branch (which would otherwise set it)
// is skipped because .filename_guess already exists.
func setRuntime(fi *FileInfo) error {
	header, err := wavinfo.ReadHeader(fi.SourcePath)
	if err != nil {
		return err
	}
	fi.Runtime = header.Duration
	return nil
}
