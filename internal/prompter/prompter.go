// Package prompter implements the operator filename-curation step of
// spec.md §4.4: an external prompt tool is handed the stage's filename
// guess, the operator's edited reply is read back, and the result is
// validated against the guessed timestamp before the prompt stage
// proceeds.
package prompter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/soundkeeper/taketake/internal/talkytime"
)

// ErrValidationFail classifies a failed operator round-trip into the
// ErrorKind spec.md §7 names (PromptValidation).
var ErrValidationFail = fmt.Errorf("prompter: provided filename failed validation")

// Prompter presents a filename guess to the operator and returns the
// operator's (possibly unedited) reply. The prompt resource is serialized
// by spec.md §4.4's design note — only one file is ever prompted at a
// time — so implementations need no internal locking of their own; the
// pipeline's prompt stage enforces the serialization.
type Prompter interface {
	Suggest(ctx context.Context, guess string) (provided string, err error)
}

// CommandPrompter runs an external command, writing guess to its stdin
// and reading its stdout as the operator's reply.
type CommandPrompter struct {
	Argv []string
}

// Suggest implements Prompter by running the configured external command.
func (p CommandPrompter) Suggest(ctx context.Context, guess string) (string, error) {
	if len(p.Argv) == 0 {
		return "", fmt.Errorf("prompter: command argv is not configured")
	}

	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Stdin = strings.NewReader(guess)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("prompter: run prompt command: %w", err)
	}

	return strings.TrimSpace(out.String()), nil
}

// ValidateAndConfirm asks p to suggest a filename starting from guess,
// then validates the operator's reply against guessedTimestamp and bounds
// via talkytime.Validate. It returns the confirmed filename text and its
// parsed timestamp.
func ValidateAndConfirm(ctx context.Context, p Prompter, guess string, guessedTimestamp talkytime.Timestamp, bounds talkytime.ValidationBounds) (string, talkytime.Timestamp, error) {
	provided, err := p.Suggest(ctx, guess)
	if err != nil {
		return "", talkytime.Timestamp{}, err
	}

	ts, err := talkytime.Validate(provided, guessedTimestamp, bounds)
	if err != nil {
		return "", talkytime.Timestamp{}, fmt.Errorf("%w: %v", ErrValidationFail, err)
	}

	return provided, ts, nil
}
