// Package speechtotext invokes the external speech-to-text collaborator
// (spec.md §6): a child process fed a bounded waveform prefix on stdin,
// emitting a whitespace-delimited timestamp token stream on stdout, with
// the configurable per-file timeout and single retry of §4.3/§5.
package speechtotext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Recognize runs argv against prefix, retrying up to retries additional
// times on failure (timeout or non-zero exit), and returns the recognized
// token stream split on whitespace.
func Recognize(ctx context.Context, argv []string, prefix []byte, timeout time.Duration, retries int) ([]string, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("speechtotext: command argv must not be empty")
	}
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		tokens, err := recognizeOnce(ctx, argv, prefix, timeout)
		if err == nil {
			return tokens, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("speechtotext: recognition failed after %d attempt(s): %w", retries+1, lastErr)
}

func recognizeOnce(ctx context.Context, argv []string, prefix []byte, timeout time.Duration) ([]string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(prefix)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("speech-to-text timed out after %s: %w", timeout, runCtx.Err())
		}
		return nil, fmt.Errorf("run speech-to-text %s: %w", argv[0], err)
	}

	return strings.Fields(stdout.String()), nil
}
