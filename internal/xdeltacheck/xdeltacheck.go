// Package xdeltacheck implements the xdelta cross-check of spec.md §4.7:
// decode the encoded FLAC back to PCM, diff it against the
// original source with xdelta3, and classify the result as a zero-delta
// witness (lossless round-trip proven) or a real delta (XdeltaMismatch).
package xdeltacheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/vcdiff"
)

// ErrMismatch is returned when xdelta3 reports any delta beyond the
// recognized zero-delta shape, or when either child process exits
// non-zero.
var ErrMismatch = errors.New("xdeltacheck: source and decoded audio differ")

// Check decodes flacPath to PCM via tools.FlacDecode and diffs that output
// against sourcePath via tools.Xdelta3, piping the decoder's stdout
// directly into the differ's stdin so neither full waveform is ever
// buffered in process memory. The differ's output is written to xdeltaPath
// (spec.md §3's ".xdelta" artifact) rather than held in memory, so a
// resumed run can classify it without re-running either external tool
// (see ClassifyFile). It reports true only when the resulting VCDIFF
// stream is the recognized zero-delta shape. A real delta, an unparseable
// stream, a missing tool or a child process exiting non-zero returns false
// with an error wrapping ErrMismatch; failing to create or close the
// .xdelta file, to start a child process, or to read the source or the
// .xdelta file returns false with an error that does not wrap it.
func Check(ctx context.Context, tools config.ToolsConfig, sourcePath, flacPath, xdeltaPath string) (bool, error) {
	if len(tools.FlacDecode.Argv) == 0 {
		return false, fmt.Errorf("%w: tools.flac_decode is not configured", ErrMismatch)
	}
	if len(tools.Xdelta3.Argv) == 0 {
		return false, fmt.Errorf("%w: tools.xdelta3 is not configured", ErrMismatch)
	}

	decodeArgv := append([]string{}, tools.FlacDecode.Argv...)
	decodeArgv = append(decodeArgv, flacPath)
	decodeCmd := exec.CommandContext(ctx, decodeArgv[0], decodeArgv[1:]...)

	pr, pw := io.Pipe()
	decodeCmd.Stdout = pw

	diffArgv := append([]string{}, tools.Xdelta3.Argv...)
	diffArgv = append(diffArgv, "-e", "-s", sourcePath)
	diffCmd := exec.CommandContext(ctx, diffArgv[0], diffArgv[1:]...)
	diffCmd.Stdin = pr

	diffOut, err := os.Create(xdeltaPath)
	if err != nil {
		return false, fmt.Errorf("create %q: %w", xdeltaPath, err)
	}
	diffCmd.Stdout = diffOut

	if err := diffCmd.Start(); err != nil {
		diffOut.Close()
		return false, fmt.Errorf("start xdelta3: %w", err)
	}
	if err := decodeCmd.Start(); err != nil {
		pw.Close()
		diffCmd.Process.Kill()
		diffCmd.Wait()
		diffOut.Close()
		return false, fmt.Errorf("start flac decoder: %w", err)
	}

	decodeErr := decodeCmd.Wait()
	// Closing the write end once the decoder exits propagates EOF (and,
	// on platforms that model it as SIGPIPE on the decoder side, the
	// closed-pipe signal) to xdelta3's stdin per spec.md §4.7 step 3.
	pw.Close()
	diffErr := diffCmd.Wait()
	closeErr := diffOut.Close()

	if decodeErr != nil {
		return false, fmt.Errorf("%w: flac decode failed: %v", ErrMismatch, decodeErr)
	}
	if diffErr != nil {
		return false, fmt.Errorf("%w: xdelta3 failed: %v", ErrMismatch, diffErr)
	}
	if closeErr != nil {
		return false, fmt.Errorf("close %q: %w", xdeltaPath, closeErr)
	}

	return ClassifyFile(sourcePath, xdeltaPath)
}

// ClassifyFile reads an already-written .xdelta artifact and classifies it
// without re-running either external tool — the resume path spec.md
// §4.7 step 1 names ("if .xdelta exists and encodes a zero-delta copy,
// skip"), and invariant I5's idempotence witness for this stage.
func ClassifyFile(sourcePath, xdeltaPath string) (bool, error) {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false, fmt.Errorf("stat source %q: %w", sourcePath, err)
	}

	data, err := os.ReadFile(xdeltaPath)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", xdeltaPath, err)
	}

	zero, err := vcdiff.IsZeroDelta(data, sourceInfo.Size())
	if err != nil {
		return false, fmt.Errorf("%w: classify vcdiff output: %v", ErrMismatch, err)
	}
	if !zero {
		return false, ErrMismatch
	}
	return true, nil
}
