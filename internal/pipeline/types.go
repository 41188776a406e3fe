// Package pipeline runs the seven-stage transfer engine of spec.md §4:
// setup, listen, prompt, flacenc, pargen, xdelta, and cleanup, wired as a
// DAG of goroutines communicating over Go channels. A channel's close is
// the pipeline's sentinel: once a stage's input channel closes and every
// in-flight token has drained, the stage closes its own output
// channel(s), propagating completion downstream.
package pipeline

import (
	"strings"
	"sync"
	"time"

	"github.com/soundkeeper/taketake/internal/talkytime"
)

// Stage identifies one of the seven per-file pipeline stages.
type Stage string

const (
	StageSetup   Stage = "setup"
	StageListen  Stage = "listen"
	StagePrompt  Stage = "prompt"
	StageFlacenc Stage = "flacenc"
	StagePargen  Stage = "pargen"
	StageXdelta  Stage = "xdelta"
	StageCleanup Stage = "cleanup"
)

// ErrorKind classifies why a file's pipeline run stopped, per spec.md §7.
type ErrorKind string

const (
	SetupFail          ErrorKind = "SetupFail"
	SpeechRecogFail    ErrorKind = "SpeechRecogFail"
	TimestampParseFail ErrorKind = "TimestampParse"
	PromptValidation   ErrorKind = "PromptValidation"
	EncodeFail         ErrorKind = "EncodeFail"
	Par2CreateFail     ErrorKind = "Par2CreateFail"
	Par2VerifyFail     ErrorKind = "Par2VerifyFail"
	EvictFail          ErrorKind = "EvictFail"
	XdeltaMismatch     ErrorKind = "XdeltaMismatch"
	CopybackVerifyFail ErrorKind = "CopybackVerifyFail"
	ProgressWriteFail  ErrorKind = "ProgressWrite"
	Aborted            ErrorKind = "Aborted"
)

// Token travels between stages on a bounded channel. Index identifies the
// FileInfo it refers to; Failed marks that an upstream stage already
// failed this file, so downstream stages should skip real work and only
// forward the token for bookkeeping (a failed file still needs to reach
// cleanup so the barrier accounts for it, but cleanup never touches its
// source or destination artifacts).
type Token struct {
	Index  int
	Failed bool
}

// FileInfo is one source recording's mutable progress record. Each field
// group is owned by exactly one stage at a time: listen owns
// GuessedTimestamp and Runtime, prompt owns ProvidedName, flacenc writes
// the file at EncodedPath that pargen and xdelta then read, pargen sets
// FinalName, and cleanup sets FinalPath (and FinalName when pargen never
// set it). mu guards err/errorKind, the only fields more than one
// goroutine ever touches concurrently (for example listen and flacenc
// both failing the same file).
type FileInfo struct {
	Index int

	SourceBasename string
	SourcePath     string
	ProgressDir    string
	InProgressPath string
	EncodedPath    string
	FinalName      string
	FinalPath      string

	GuessedTimestamp talkytime.Timestamp
	ProvidedName     string
	Runtime          time.Duration

	mu        sync.Mutex
	err       error
	errorKind ErrorKind
}

// Fail records the first failure for this file; later calls are no-ops so
// the original ErrorKind is never overwritten by a downstream stage that
// merely observed the already-failed token.
func (f *FileInfo) Fail(kind ErrorKind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return
	}
	f.err = err
	f.errorKind = kind
}

// Outcome returns the recorded failure, if any.
func (f *FileInfo) Outcome() (ErrorKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorKind, f.err
}

// Failed reports whether this file has already failed.
func (f *FileInfo) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err != nil
}

// flacFilename derives the operator-confirmed ".flac" filename from a
// provided name, falling back to the source basename when prompt never
// ran (e.g. a file that failed before reaching it). Shared by pargen
// (which names the §4.6 symlink and the par2 set) and cleanup (which
// names the §4.8 copy-back and dest artifacts), so both stages agree on
// the same name for the same file.
func flacFilename(provided, fallback string) string {
	name := provided
	if name == "" {
		name = fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".flac") {
		name += ".flac"
	}
	return name
}
