// Package talkytime parses the spoken wall-clock timestamp embedded in a
// recording's opening seconds (spec.md §4.3, GLOSSARY "Talkytime
// timestamp"), builds the generated filename grammar of spec.md §6, and
// implements the operator-confirmation validation rules of §4.4.
package talkytime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a parsed wall-clock time plus the confidence marker spec.md
// §3/§6 attaches to it ("optional, with confidence marker").
type Timestamp struct {
	Time      time.Time
	Confident bool
}

// weekdayAbbrev are the three-letter weekday tokens used by the filename
// grammar's Ddd component, index 0 = Sunday to match time.Weekday.
var weekdayAbbrev = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// weekdayNames maps the spoken weekday tokens (full names and three-letter
// abbreviations, lower-case) to time.Weekday. The talkytime producer emits
// one key token followed by its value, e.g. "year 2021 month 11 day 06
// hour 10 minute 44 second 00 weekday saturday".
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ErrUnparseable is returned when the STT token stream contains no
// recognizable timestamp; listen surfaces this as ErrorKind TimestampParse.
var ErrUnparseable = fmt.Errorf("talkytime: no parseable timestamp in token stream")

// ParseTokens parses a speech-to-text token stream (§6) into a Timestamp.
// Confident is false when the weekday token is missing (the weekday then
// follows from the parsed date alone), and also when the spoken weekday is
// not a known name or does not match the parsed date — the fallback
// heuristic spec.md §6/SPEC_FULL.md §Supplemented Features 1 describes.
// Missing hour, minute or second tokens default to zero and do not lower
// confidence.
func ParseTokens(tokens []string) (Timestamp, error) {
	fields := map[string]string{}
	for i := 0; i+1 < len(tokens); i += 2 {
		key := strings.ToLower(tokens[i])
		switch key {
		case "year", "month", "day", "hour", "minute", "second", "weekday":
			fields[key] = tokens[i+1]
		}
	}

	year, okYear := atoiField(fields, "year")
	month, okMonth := atoiField(fields, "month")
	day, okDay := atoiField(fields, "day")
	if !okYear || !okMonth || !okDay {
		return Timestamp{}, ErrUnparseable
	}

	hour, _ := atoiField(fields, "hour")
	minute, _ := atoiField(fields, "minute")
	second, _ := atoiField(fields, "second")

	if year < 100 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)

	confident := true
	if spokenWeekday, ok := fields["weekday"]; ok {
		want, known := weekdayNames[strings.ToLower(spokenWeekday)]
		if !known || want != t.Weekday() {
			confident = false
		}
	} else {
		confident = false
	}

	return Timestamp{Time: t, Confident: confident}, nil
}

func atoiField(fields map[string]string, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// WeekdayAbbrev returns the three-letter weekday token for t, as used by
// the filename grammar's Ddd component.
func WeekdayAbbrev(t time.Time) string {
	return weekdayAbbrev[int(t.Weekday())]
}

// FormatRuntime renders a duration in the filename grammar's HhMmSs form
// with every zero-valued component omitted (spec.md §6); a zero duration
// renders as "0s".
func FormatRuntime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

// BuildFilename constructs the generated filename:
//
//	<prefix>.<YYYYMMDD-HHMMSS-Ddd>[+?][.<instrument>].<runtime>[.<notes>].<orig_basename>
//
// The instrument and notes components are left out when they are empty.
func BuildFilename(prefix string, ts Timestamp, runtime time.Duration, instrument, notes, origBasename string) string {
	stamp := FormatTimestamp(ts)

	parts := []string{prefix, stamp}
	if instrument != "" {
		parts = append(parts, instrument)
	}
	parts = append(parts, FormatRuntime(runtime))
	if notes != "" {
		parts = append(parts, notes)
	}
	parts = append(parts, origBasename)
	return strings.Join(parts, ".")
}

// FormatTimestamp renders the <YYYYMMDD-HHMMSS-Ddd>[+?] component alone.
func FormatTimestamp(ts Timestamp) string {
	stamp := fmt.Sprintf("%s-%s", ts.Time.Format("20060102"), ts.Time.Format("150405"))
	stamp = fmt.Sprintf("%s-%s", stamp, WeekdayAbbrev(ts.Time))
	if !ts.Confident {
		stamp += "+?"
	}
	return stamp
}
