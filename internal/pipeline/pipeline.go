package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/prompter"
	"github.com/soundkeeper/taketake/internal/report"
)

// channelBuffer bounds every inter-stage queue (spec.md §5's "bounded SPSC
// queues"); a small buffer lets a fast upstream stage run ahead of a slow
// downstream one without unbounded memory growth.
const channelBuffer = 4

// Run drives one full transfer of cfg.Source's recordings to cfg.Dest
// through the seven-stage pipeline and returns the end-of-run report.
// Each file's own per-file progress sub-directory is removed by cleanup
// once that file finishes successfully; Run itself removes the top-level
// progress directory after every stage has drained, and only when every
// file succeeded (including a run that found no recordings at all).
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, p prompter.Prompter) (report.Report, error) {
	root, files, err := setup(cfg, logger, time.Now())
	if err != nil {
		return report.Report{}, fmt.Errorf("%s: %w", SetupFail, err)
	}

	if len(files) == 0 {
		logger.Info("no recordings found", "source", cfg.Source)
		if err := root.Remove(); err != nil {
			logger.Warn("failed to remove progress directory after empty run", "dir", root.Dir, "error", err.Error())
		}
		return report.Report{}, nil
	}

	setupToListen := make(chan Token, channelBuffer)
	setupToFlacenc := make(chan Token, channelBuffer)
	listenToPrompt := make(chan Token, channelBuffer)
	flacencToPargen := make(chan Token, channelBuffer)
	flacencToXdelta := make(chan Token, channelBuffer)
	promptToPargen := make(chan Token, channelBuffer)
	pargenToCleanup := make(chan Token, channelBuffer)
	xdeltaToCleanup := make(chan Token, channelBuffer)
	cleanupDone := make(chan Token, channelBuffer)

	go runListen(ctx, cfg, logger, files, setupToListen, listenToPrompt)
	go runPrompt(ctx, cfg, logger, p, files, listenToPrompt, promptToPargen)
	go runFlacenc(ctx, cfg, logger, files, setupToFlacenc, flacencToPargen, flacencToXdelta)
	go runPargen(ctx, cfg, logger, files, flacencToPargen, promptToPargen, pargenToCleanup)
	go runXdelta(ctx, cfg, logger, files, flacencToXdelta, xdeltaToCleanup)
	go runCleanup(ctx, cfg, logger, files, pargenToCleanup, xdeltaToCleanup, cleanupDone)

	for _, fi := range files {
		failed := false
		select {
		case <-ctx.Done():
			fi.Fail(Aborted, ctx.Err())
			failed = true
		default:
		}
		setupToListen <- Token{Index: fi.Index, Failed: failed}
		setupToFlacenc <- Token{Index: fi.Index, Failed: failed}
	}
	close(setupToListen)
	close(setupToFlacenc)

	var rep report.Report
	for range cleanupDone {
	}

	allOK := true
	for _, fi := range files {
		if fi.Failed() {
			allOK = false
			kind, err := fi.Outcome()
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			rep.Add(report.Record{Name: fi.SourceBasename, Succeeded: false, ErrorKind: string(kind), Message: msg})
			continue
		}
		rep.Add(report.Record{Name: fi.SourceBasename, Succeeded: true, Message: fmt.Sprintf("transferred to %s", fi.FinalPath)})
	}

	if allOK {
		if err := root.Remove(); err != nil {
			logger.Warn("failed to remove progress directory after full success", "dir", root.Dir, "error", err.Error())
		}
	}

	return rep, nil
}
