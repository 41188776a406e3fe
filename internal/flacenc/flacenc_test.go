package flacenc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/flacenc"
)

var testEvict = config.EvictConfig{PollTimeout: 100 * time.Millisecond, PollInterval: 10 * time.Millisecond}

func TestEncodeFailsWhenEncoderCommandFails(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("pcm"), 0o644))

	inProgress := filepath.Join(dir, ".in_progress.flac")
	encoded := filepath.Join(dir, ".encoded.flac")

	tools := config.ToolsConfig{FlacEncode: config.CommandConfig{Argv: []string{"false"}}}

	err := flacenc.Encode(context.Background(), nil, tools, testEvict, source, inProgress, encoded)
	require.ErrorIs(t, err, flacenc.ErrEncodeFail)
	require.NoFileExists(t, encoded)
}

func TestEncodeFailsValidationOnGarbageOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("pcm"), 0o644))

	inProgress := filepath.Join(dir, ".in_progress.flac")
	encoded := filepath.Join(dir, ".encoded.flac")

	tools := config.ToolsConfig{
		FlacEncode: config.CommandConfig{Argv: []string{"sh", "-c", `printf 'garbage-not-flac' > "$1"`}},
	}

	err := flacenc.Encode(context.Background(), nil, tools, testEvict, source, inProgress, encoded)
	require.ErrorIs(t, err, flacenc.ErrEncodeFail)
	require.NoFileExists(t, inProgress)
	require.NoFileExists(t, encoded)
}

func TestEncodeRemovesStaleInProgressBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.wav")
	require.NoError(t, os.WriteFile(source, []byte("pcm"), 0o644))

	inProgress := filepath.Join(dir, ".in_progress.flac")
	encoded := filepath.Join(dir, ".encoded.flac")
	require.NoError(t, os.WriteFile(inProgress, []byte("stale-from-a-crash"), 0o644))

	tools := config.ToolsConfig{FlacEncode: config.CommandConfig{Argv: []string{"false"}}}

	err := flacenc.Encode(context.Background(), nil, tools, testEvict, source, inProgress, encoded)
	require.Error(t, err)
	require.NoFileExists(t, inProgress)
}

func TestEncodeRejectsUnconfiguredTool(t *testing.T) {
	dir := t.TempDir()
	err := flacenc.Encode(context.Background(), nil, config.ToolsConfig{}, testEvict, "src.wav",
		filepath.Join(dir, ".in_progress.flac"), filepath.Join(dir, ".encoded.flac"))
	require.ErrorIs(t, err, flacenc.ErrEncodeFail)
}
