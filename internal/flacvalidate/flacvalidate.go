// Package flacvalidate proves invariant I2 ("no partial writes survive"):
// a FLAC file either does not exist or is a complete, structurally valid
// encoding. flacenc.Encode runs it before the atomic .in_progress.flac ->
// .encoded.flac rename (spec.md §4.5 step 4), and the pipeline's flacenc
// stage runs it on an existing .encoded.flac to decide whether a resumed
// run can skip re-encoding. cleanup does not run it.
package flacvalidate

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// StreamInfo is the subset of mewkiz/flac's parsed header this package
// exposes to callers that need sample geometry (e.g. duration cross-checks).
type StreamInfo struct {
	SampleRate    uint32
	Channels      uint8
	BitsPerSample uint8
	TotalSamples  uint64
}

// Validate parses path's FLAC header and walks every frame to EOF. A
// truncated or corrupt file surfaces as a non-nil error before any caller
// treats the file as complete.
func Validate(path string) error {
	_, err := Inspect(path)
	return err
}

// Inspect validates path and returns its StreamInfo on success.
func Inspect(path string) (StreamInfo, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("parse flac header %q: %w", path, err)
	}
	defer stream.Close()

	for {
		_, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return StreamInfo{}, fmt.Errorf("parse flac frame %q: %w", path, err)
		}
	}

	info := stream.Info
	return StreamInfo{
		SampleRate:    info.SampleRate,
		Channels:      uint8(info.NChannels),
		BitsPerSample: uint8(info.BitsPerSample),
		TotalSamples:  info.NSamples,
	}, nil
}
