package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// unset clears an environment variable for the duration of the test,
// restoring whatever was there before.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.SSHUser != "root" {
		t.Errorf("SSHUser = %q, want %q", cfg.SSHUser, "root")
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, ".")
	}
	if cfg.Decoder != DecoderAuto {
		t.Errorf("Decoder = %q, want %q", cfg.Decoder, DecoderAuto)
	}
	if cfg.Host != "" {
		t.Errorf("Host = %q, want empty", cfg.Host)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	unset(t, "RESNAP_HOST")
	unset(t, "RESNAP_OUTPUT_DIR")

	path := filepath.Join(t.TempDir(), "tablet.env")
	content := "RESNAP_HOST=10.11.99.1\nRESNAP_OUTPUT_DIR=/tmp/snaps\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "10.11.99.1" {
		t.Errorf("Host = %q, want %q", cfg.Host, "10.11.99.1")
	}
	if cfg.OutputDir != "/tmp/snaps" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/tmp/snaps")
	}
	if cfg.SSHUser != "root" {
		t.Errorf("SSHUser = %q, want the default to survive", cfg.SSHUser)
	}
}

func TestLoadEnvBeatsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablet.env")
	if err := os.WriteFile(path, []byte("RESNAP_SSH_USER=fileuser\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RESNAP_SSH_USER", "envuser")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SSHUser != "envuser" {
		t.Errorf("SSHUser = %q, want the process environment to win", cfg.SSHUser)
	}
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such.env"))
	if err == nil {
		t.Fatal("Load() with a missing named env file should fail")
	}
	if !strings.Contains(err.Error(), "no-such.env") {
		t.Errorf("error %q should name the file", err)
	}
}

func TestLoadWithoutEnvFile(t *testing.T) {
	unset(t, "RESNAP_HOST")

	// No .env lives in this package directory, and that is fine.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "" {
		t.Errorf("Host = %q, want empty", cfg.Host)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() without a host should fail")
	}

	cfg.Host = "10.11.99.1"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.Decoder = "imagemagick"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with an unknown decoder should fail")
	}
}
