package config

import "time"

// Default returns the canonical runtime configuration used when no file is
// present, matching the defaults named in spec.md §5/§6.
func Default() Config {
	return Config{
		ModifySource: true,
		Prefix:       "rec",
		Instrument:   "",
		Speech: SpeechConfig{
			Timeout:       120 * time.Second,
			Retries:       1,
			PrefixSeconds: 20,
		},
		Prompt: PromptConfig{
			MaxDelta: 24 * time.Hour,
		},
		Evict: EvictConfig{
			PollTimeout:  30 * time.Second,
			PollInterval: 500 * time.Millisecond,
		},
		Par2: Par2Config{
			RedundancyPercent: 2,
			MinVolumes:        2,
		},
		Tools: ToolsConfig{
			SpeechToText: CommandConfig{Raw: "talkytime-listen", Argv: mustParseArgv("talkytime-listen")},
			FlacEncode:   CommandConfig{Raw: "flac", Argv: mustParseArgv("flac")},
			FlacDecode:   CommandConfig{Raw: "flac", Argv: mustParseArgv("flac")},
			Par2Create:   CommandConfig{Raw: "par2", Argv: mustParseArgv("par2")},
			Par2Verify:   CommandConfig{Raw: "par2", Argv: mustParseArgv("par2")},
			Xdelta3:      CommandConfig{Raw: "xdelta3", Argv: mustParseArgv("xdelta3")},
			Prompt:       CommandConfig{Raw: "", Argv: nil},
		},
		Debug: DebugConfig{},
	}
}
