package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Prefix) == "" {
		return nil, fmt.Errorf("prefix must not be empty")
	}
	if cfg.Speech.Timeout <= 0 {
		return nil, fmt.Errorf("speech.timeout must be > 0")
	}
	if cfg.Speech.Retries < 0 {
		return nil, fmt.Errorf("speech.retries must be >= 0")
	}
	if cfg.Speech.PrefixSeconds <= 0 {
		return nil, fmt.Errorf("speech.prefix_seconds must be > 0")
	}
	if cfg.Prompt.MaxDelta <= 0 {
		return nil, fmt.Errorf("prompt.max_delta must be > 0")
	}
	if cfg.Evict.PollTimeout <= 0 {
		return nil, fmt.Errorf("evict.poll_timeout must be > 0")
	}
	if cfg.Evict.PollInterval <= 0 {
		return nil, fmt.Errorf("evict.poll_interval must be > 0")
	}
	if cfg.Evict.PollInterval > cfg.Evict.PollTimeout {
		return nil, fmt.Errorf("evict.poll_interval must be <= evict.poll_timeout")
	}
	if cfg.Par2.RedundancyPercent < 1 {
		return nil, fmt.Errorf("par2.redundancy_percent must be >= 1")
	}
	if cfg.Par2.MinVolumes < 1 {
		return nil, fmt.Errorf("par2.min_volumes must be >= 1")
	}
	if len(cfg.Tools.FlacEncode.Argv) == 0 {
		return nil, fmt.Errorf("tools.flac_encode must not be empty")
	}
	if len(cfg.Tools.FlacDecode.Argv) == 0 {
		return nil, fmt.Errorf("tools.flac_decode must not be empty")
	}
	if len(cfg.Tools.Par2Create.Argv) == 0 {
		return nil, fmt.Errorf("tools.par2_create must not be empty")
	}
	if len(cfg.Tools.Par2Verify.Argv) == 0 {
		return nil, fmt.Errorf("tools.par2_verify must not be empty")
	}
	if len(cfg.Tools.Xdelta3.Argv) == 0 {
		return nil, fmt.Errorf("tools.xdelta3 must not be empty")
	}
	if len(cfg.Tools.SpeechToText.Argv) == 0 {
		return nil, fmt.Errorf("tools.speech_to_text must not be empty")
	}

	if cfg.Source != "" && cfg.Source == cfg.Dest {
		return nil, fmt.Errorf("source and dest must not be the same directory")
	}

	return warnings, nil
}
