// Package config resolves, parses, validates, and defaults taketake's
// runtime configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by taketake.
type Config struct {
	Source        string
	Dest          string
	ModifySource  bool
	Prefix        string
	Instrument    string
	Speech        SpeechConfig
	Prompt        PromptConfig
	Evict         EvictConfig
	Par2          Par2Config
	Tools         ToolsConfig
	Debug         DebugConfig
}

// SpeechConfig controls the speech-to-text child process contract of §4.3/§6.
type SpeechConfig struct {
	Timeout       time.Duration
	Retries       int
	PrefixSeconds int
}

// PromptConfig controls operator filename-curation validation bounds (§4.4).
type PromptConfig struct {
	MaxDelta time.Duration
}

// EvictConfig controls page-cache eviction poll bounds (§5/§6).
type EvictConfig struct {
	PollTimeout  time.Duration
	PollInterval time.Duration
}

// Par2Config controls parity-set creation defaults (§6).
type Par2Config struct {
	RedundancyPercent int
	MinVolumes        int
}

// ToolsConfig names the external binaries the engine shells out to.
type ToolsConfig struct {
	SpeechToText CommandConfig
	FlacEncode   CommandConfig
	FlacDecode   CommandConfig
	Par2Create   CommandConfig
	Par2Verify   CommandConfig
	Xdelta3      CommandConfig
	Prompt       CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	KeepInProgressArtifacts bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
