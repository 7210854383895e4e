// Package config resolves runtime settings from defaults, an optional
// .env file, and RESNAP_* environment variables. Command-line flags are
// bound on top by the CLI, so precedence is flags, then environment,
// then .env, then defaults.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Decoder backend names accepted by Config.Decoder.
const (
	DecoderAuto   = "auto"
	DecoderFFmpeg = "ffmpeg"
	DecoderNative = "native"
)

// Config holds all runtime configuration.
type Config struct {
	Host        string
	SSHUser     string
	SSHKey      string
	SSHPassword string
	OutputDir   string
	Decoder     string
	FFmpeg      string
	LogFile     string
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		SSHUser:   "root",
		OutputDir: ".",
		Decoder:   DecoderAuto,
	}
}

// Load builds a Config from defaults, the env file, and the process
// environment. An empty envFile means the conventional .env in the
// working directory, which may be absent; a named file must exist.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	cfg.overlayEnv()
	return cfg, nil
}

// overlayEnv applies RESNAP_* variables over the current values.
// godotenv never overrides variables already set in the process, so a
// single pass here sees the merged environment.
func (c *Config) overlayEnv() {
	for _, v := range []struct {
		key string
		dst *string
	}{
		{"RESNAP_HOST", &c.Host},
		{"RESNAP_SSH_USER", &c.SSHUser},
		{"RESNAP_SSH_KEY", &c.SSHKey},
		{"RESNAP_SSH_PASSWORD", &c.SSHPassword},
		{"RESNAP_OUTPUT_DIR", &c.OutputDir},
		{"RESNAP_DECODER", &c.Decoder},
		{"RESNAP_FFMPEG", &c.FFmpeg},
		{"RESNAP_LOG_FILE", &c.LogFile},
	} {
		if val, ok := os.LookupEnv(v.key); ok {
			*v.dst = val
		}
	}
}

// Validate checks that the configuration can drive a capture.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("tablet address is required (set -I or RESNAP_HOST)")
	}
	switch c.Decoder {
	case DecoderAuto, DecoderFFmpeg, DecoderNative:
	default:
		return fmt.Errorf("unknown decoder %q (want %s, %s or %s)", c.Decoder, DecoderAuto, DecoderFFmpeg, DecoderNative)
	}
	return nil
}
