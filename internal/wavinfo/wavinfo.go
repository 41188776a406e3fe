// Package wavinfo reads source-recording WAV headers and extracts the
// bounded waveform prefix fed to the external speech-to-text collaborator,
// replacing the distilled spec's vague "compute duration"/"bounded prefix"
// language (spec.md §3, §4.3) with a concrete decode step.
package wavinfo

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavAudioFormatPCM = 1

// Header describes the properties of a source waveform needed by the
// engine: FileInfo.duration (spec.md §3) and the channel/rate geometry
// needed to slice a bounded prefix.
type Header struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ReadHeader opens path and reads its WAV header without decoding samples.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return Header{}, fmt.Errorf("%q is not a valid WAV file", path)
	}

	dur, err := dec.Duration()
	if err != nil {
		return Header{}, fmt.Errorf("read duration of %q: %w", path, err)
	}

	return Header{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

// ExtractPrefix decodes up to seconds worth of samples from path and
// re-encodes them as a standalone, self-contained WAV byte stream — the
// "bounded prefix of the source waveform" spec.md §4.3 feeds to the
// external speech-to-text process on stdin.
func ExtractPrefix(path string, seconds int) ([]byte, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("prefix seconds must be > 0, got %d", seconds)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%q is not a valid WAV file", path)
	}

	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	bitDepth := int(dec.BitDepth)
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%q has invalid channel/rate geometry", path)
	}

	framesWanted := seconds * sampleRate
	samplesWanted := framesWanted * channels

	const chunkFrames = 4096
	chunk := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, chunkFrames*channels),
	}

	data := make([]int, 0, samplesWanted)
	for len(data) < samplesWanted {
		n, err := dec.PCMBuffer(chunk)
		if n > 0 {
			remaining := samplesWanted - len(data)
			take := n
			if take > remaining {
				take = remaining
			}
			data = append(data, chunk.Data[:take]...)
		}
		if err != nil || n == 0 {
			break
		}
	}

	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, channels, wavAudioFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode prefix of %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize prefix encoding of %q: %w", path, err)
	}

	return ws.Bytes(), nil
}
