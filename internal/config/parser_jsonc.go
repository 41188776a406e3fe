package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

type jsoncConfig struct {
	Source       *string        `json:"source"`
	Dest         *string        `json:"dest"`
	ModifySource *bool          `json:"modify_source"`
	Prefix       *string        `json:"prefix"`
	Instrument   *string        `json:"instrument"`
	Speech       *jsoncSpeech   `json:"speech"`
	Prompt       *jsoncPrompt   `json:"prompt"`
	Evict        *jsoncEvict    `json:"evict"`
	Par2         *jsoncPar2     `json:"par2"`
	Tools        *jsoncTools    `json:"tools"`
	Debug        *jsoncDebug    `json:"debug"`
}

type jsoncSpeech struct {
	TimeoutSeconds *int `json:"timeout_seconds"`
	Retries        *int `json:"retries"`
	PrefixSeconds  *int `json:"prefix_seconds"`
}

type jsoncPrompt struct {
	MaxDeltaHours *float64 `json:"max_delta_hours"`
}

type jsoncEvict struct {
	PollTimeoutSeconds   *float64 `json:"poll_timeout_seconds"`
	PollIntervalMillis   *int     `json:"poll_interval_ms"`
}

type jsoncPar2 struct {
	RedundancyPercent *int `json:"redundancy_percent"`
	MinVolumes        *int `json:"min_volumes"`
}

type jsoncTools struct {
	SpeechToText *string `json:"speech_to_text"`
	FlacEncode   *string `json:"flac_encode"`
	FlacDecode   *string `json:"flac_decode"`
	Par2Create   *string `json:"par2_create"`
	Par2Verify   *string `json:"par2_verify"`
	Xdelta3      *string `json:"xdelta3"`
	Prompt       *string `json:"prompt"`
}

type jsoncDebug struct {
	KeepInProgressArtifacts *bool `json:"keep_in_progress_artifacts"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Source != nil {
		cfg.Source = strings.TrimSpace(*payload.Source)
	}
	if payload.Dest != nil {
		cfg.Dest = strings.TrimSpace(*payload.Dest)
	}
	if payload.ModifySource != nil {
		cfg.ModifySource = *payload.ModifySource
	}
	if payload.Prefix != nil {
		cfg.Prefix = strings.TrimSpace(*payload.Prefix)
	}
	if payload.Instrument != nil {
		cfg.Instrument = strings.TrimSpace(*payload.Instrument)
	}

	if payload.Speech != nil {
		if payload.Speech.TimeoutSeconds != nil {
			cfg.Speech.Timeout = time.Duration(*payload.Speech.TimeoutSeconds) * time.Second
		}
		if payload.Speech.Retries != nil {
			cfg.Speech.Retries = *payload.Speech.Retries
		}
		if payload.Speech.PrefixSeconds != nil {
			cfg.Speech.PrefixSeconds = *payload.Speech.PrefixSeconds
		}
	}

	if payload.Prompt != nil && payload.Prompt.MaxDeltaHours != nil {
		cfg.Prompt.MaxDelta = time.Duration(*payload.Prompt.MaxDeltaHours * float64(time.Hour))
	}

	if payload.Evict != nil {
		if payload.Evict.PollTimeoutSeconds != nil {
			cfg.Evict.PollTimeout = time.Duration(*payload.Evict.PollTimeoutSeconds * float64(time.Second))
		}
		if payload.Evict.PollIntervalMillis != nil {
			cfg.Evict.PollInterval = time.Duration(*payload.Evict.PollIntervalMillis) * time.Millisecond
		}
	}

	if payload.Par2 != nil {
		if payload.Par2.RedundancyPercent != nil {
			cfg.Par2.RedundancyPercent = *payload.Par2.RedundancyPercent
		}
		if payload.Par2.MinVolumes != nil {
			cfg.Par2.MinVolumes = *payload.Par2.MinVolumes
		}
	}

	if payload.Tools != nil {
		if err := applyCommand(&cfg.Tools.SpeechToText, payload.Tools.SpeechToText, "tools.speech_to_text"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.FlacEncode, payload.Tools.FlacEncode, "tools.flac_encode"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.FlacDecode, payload.Tools.FlacDecode, "tools.flac_decode"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.Par2Create, payload.Tools.Par2Create, "tools.par2_create"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.Par2Verify, payload.Tools.Par2Verify, "tools.par2_verify"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.Xdelta3, payload.Tools.Xdelta3, "tools.xdelta3"); err != nil {
			return nil, err
		}
		if err := applyCommand(&cfg.Tools.Prompt, payload.Tools.Prompt, "tools.prompt"); err != nil {
			return nil, err
		}
	}

	if payload.Debug != nil && payload.Debug.KeepInProgressArtifacts != nil {
		cfg.Debug.KeepInProgressArtifacts = *payload.Debug.KeepInProgressArtifacts
	}

	return warnings, nil
}

func applyCommand(dst *CommandConfig, raw *string, field string) error {
	if raw == nil {
		return nil
	}
	argv, err := parseArgv(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	*dst = CommandConfig{Raw: *raw, Argv: argv}
	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
