package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty prefix", mutate: func(c *Config) { c.Prefix = "" }, wantErr: "prefix"},
		{name: "zero speech timeout", mutate: func(c *Config) { c.Speech.Timeout = 0 }, wantErr: "speech.timeout"},
		{name: "negative retries", mutate: func(c *Config) { c.Speech.Retries = -1 }, wantErr: "speech.retries"},
		{name: "zero prefix seconds", mutate: func(c *Config) { c.Speech.PrefixSeconds = 0 }, wantErr: "speech.prefix_seconds"},
		{name: "zero max delta", mutate: func(c *Config) { c.Prompt.MaxDelta = 0 }, wantErr: "prompt.max_delta"},
		{name: "zero evict timeout", mutate: func(c *Config) { c.Evict.PollTimeout = 0 }, wantErr: "evict.poll_timeout"},
		{name: "zero evict interval", mutate: func(c *Config) { c.Evict.PollInterval = 0 }, wantErr: "evict.poll_interval"},
		{name: "interval exceeds timeout", mutate: func(c *Config) {
			c.Evict.PollTimeout = 1
			c.Evict.PollInterval = 2
		}, wantErr: "poll_interval"},
		{name: "zero redundancy", mutate: func(c *Config) { c.Par2.RedundancyPercent = 0 }, wantErr: "redundancy_percent"},
		{name: "zero min volumes", mutate: func(c *Config) { c.Par2.MinVolumes = 0 }, wantErr: "min_volumes"},
		{name: "empty flac encode argv", mutate: func(c *Config) { c.Tools.FlacEncode.Argv = nil }, wantErr: "flac_encode"},
		{name: "empty xdelta3 argv", mutate: func(c *Config) { c.Tools.Xdelta3.Argv = nil }, wantErr: "xdelta3"},
		{name: "source equals dest", mutate: func(c *Config) {
			c.Source = "/mnt/recorder"
			c.Dest = "/mnt/recorder"
		}, wantErr: "same directory"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}
