package talkytime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// filenameTimestampPattern matches the <YYYYMMDD-HHMMSS-Ddd>[+?] component
// anywhere in a filename, per spec.md §6's filename grammar.
var filenameTimestampPattern = regexp.MustCompile(
	`(\d{8})-(\d{6})-([A-Za-z]{3})(\+\?)?`,
)

// ErrWeekdayMismatch indicates the embedded weekday token doesn't match the
// weekday computed from the embedded date, per spec.md §4.4.
var ErrWeekdayMismatch = fmt.Errorf("talkytime: weekday does not match date")

// ParseFilenameTimestamp extracts and parses the timestamp component of a
// generated or operator-provided filename (resume-time reparsing, §6).
func ParseFilenameTimestamp(name string) (Timestamp, error) {
	m := filenameTimestampPattern.FindStringSubmatch(name)
	if m == nil {
		return Timestamp{}, ErrUnparseable
	}

	dateStr, timeStr, weekdayStr, lowConfMarker := m[1], m[2], m[3], m[4]

	t, err := time.ParseInLocation("20060102150405", dateStr+timeStr, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	if !strings.EqualFold(WeekdayAbbrev(t), weekdayStr) {
		return Timestamp{}, ErrWeekdayMismatch
	}

	return Timestamp{Time: t, Confident: lowConfMarker == ""}, nil
}

// ValidationBounds carries the bounds spec.md §4.4 names for operator-filename
// validation: max delta from the guessed timestamp, and the clock used for
// the not-in-future check.
type ValidationBounds struct {
	MaxDelta time.Duration
	Now      time.Time
}

// Validate applies spec.md §4.4's four rules to an operator-provided
// filename against the stage's guessed timestamp:
//
//  1. a timestamp substring must be parseable;
//  2. its weekday token must match the weekday computed from its date
//     (enforced inside ParseFilenameTimestamp);
//  3. it must fall within MaxDelta of guessed;
//  4. it must not be in the future relative to Now.
func Validate(provided string, guessed Timestamp, bounds ValidationBounds) (Timestamp, error) {
	parsed, err := ParseFilenameTimestamp(provided)
	if err != nil {
		return Timestamp{}, err
	}

	if parsed.Time.After(bounds.Now) {
		return Timestamp{}, fmt.Errorf("talkytime: provided timestamp %s is in the future", parsed.Time)
	}

	delta := parsed.Time.Sub(guessed.Time)
	if delta < 0 {
		delta = -delta
	}
	if delta > bounds.MaxDelta {
		return Timestamp{}, fmt.Errorf("talkytime: provided timestamp %s is %s from guessed %s, exceeds bound %s",
			parsed.Time, delta, guessed.Time, bounds.MaxDelta)
	}

	return parsed, nil
}
