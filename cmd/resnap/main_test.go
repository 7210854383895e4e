package main

import (
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moonstripe/resnap/internal/capture"
	"github.com/moonstripe/resnap/internal/config"
	"github.com/moonstripe/resnap/internal/decoder"
)

// unset clears an environment variable for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func clearResnapEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RESNAP_HOST", "RESNAP_SSH_USER", "RESNAP_SSH_KEY", "RESNAP_SSH_PASSWORD",
		"RESNAP_OUTPUT_DIR", "RESNAP_DECODER", "RESNAP_FFMPEG", "RESNAP_LOG_FILE",
	} {
		unset(t, key)
	}
}

func setupWithArgs(t *testing.T, a *app, args []string) {
	t.Helper()
	prev := log.Writer()
	t.Cleanup(func() { log.SetOutput(prev) })

	cmd := newRootCmd(a)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	if err := a.setup(cmd); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
}

func TestSetupDefaults(t *testing.T) {
	clearResnapEnv(t)

	a := &app{}
	setupWithArgs(t, a, nil)

	if a.cfg.Host != "" {
		t.Errorf("Host = %q, want empty", a.cfg.Host)
	}
	if a.cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q, want %q", a.cfg.OutputDir, ".")
	}
	if a.cfg.SSHUser != "root" {
		t.Errorf("SSHUser = %q, want %q", a.cfg.SSHUser, "root")
	}
	if a.cfg.Decoder != config.DecoderAuto {
		t.Errorf("Decoder = %q, want %q", a.cfg.Decoder, config.DecoderAuto)
	}
}

func TestSetupFlagBeatsEnvironment(t *testing.T) {
	clearResnapEnv(t)
	t.Setenv("RESNAP_HOST", "10.0.0.9")

	a := &app{}
	setupWithArgs(t, a, []string{"-I", "10.11.99.1"})

	if a.cfg.Host != "10.11.99.1" {
		t.Errorf("Host = %q, want the flag value to win", a.cfg.Host)
	}
}

func TestSetupEnvironmentFillsUnsetFlags(t *testing.T) {
	clearResnapEnv(t)
	t.Setenv("RESNAP_HOST", "10.0.0.9")
	t.Setenv("RESNAP_OUTPUT_DIR", "/tmp/snaps")

	a := &app{}
	setupWithArgs(t, a, []string{"--ssh-user", "alice"})

	if a.cfg.Host != "10.0.0.9" {
		t.Errorf("Host = %q, want the environment value", a.cfg.Host)
	}
	if a.cfg.OutputDir != "/tmp/snaps" {
		t.Errorf("OutputDir = %q, want the environment value", a.cfg.OutputDir)
	}
	if a.cfg.SSHUser != "alice" {
		t.Errorf("SSHUser = %q, want the flag value", a.cfg.SSHUser)
	}
}

func TestJournalPath(t *testing.T) {
	a := &app{cfg: &config.Config{OutputDir: "/tmp/caps"}}
	want := filepath.Join("/tmp/caps", ".resnap", "journal.db")
	if got := a.journalPath(); got != want {
		t.Errorf("journalPath() = %q, want %q", got, want)
	}
}

func TestNewDecoderSelection(t *testing.T) {
	a := &app{cfg: &config.Config{Decoder: config.DecoderNative}}
	if _, ok := a.newDecoder().(*decoder.Native); !ok {
		t.Errorf("decoder for %q = %T, want *decoder.Native", config.DecoderNative, a.newDecoder())
	}

	a.cfg.Decoder = config.DecoderFFmpeg
	if _, ok := a.newDecoder().(*decoder.FFmpeg); !ok {
		t.Errorf("decoder for %q = %T, want *decoder.FFmpeg", config.DecoderFFmpeg, a.newDecoder())
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := newRootCmd(&app{})
	want := map[string]bool{"serve": false, "view": false, "history": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	fnErr := fn()
	os.Stdout = orig
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	if fnErr != nil {
		t.Fatalf("captured func: %v", fnErr)
	}
	return string(out)
}

// testFrame builds a decoded white page, with a content blot when asked.
func testFrame(blot bool) *capture.Frame {
	img := image.NewGray(image.Rect(0, 0, 600, 600))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if blot {
		for y := 250; y <= 400; y++ {
			for x := 250; x <= 400; x++ {
				img.SetGray(x, y, color.Gray{})
			}
		}
	}
	return &capture.Frame{Image: img, Timestamp: time.Now().UTC()}
}

func TestProcessFrameStdoutIsCroppedPathOnly(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(prev) })

	a := &app{cfg: &config.Config{Host: "10.11.99.1", OutputDir: t.TempDir()}}

	got := captureStdout(t, func() error { return a.processFrame(testFrame(true), time.Now()) })
	line := strings.TrimSuffix(got, "\n")
	if line == "" || strings.Contains(line, "\n") {
		t.Fatalf("stdout = %q, want exactly one path line", got)
	}
	if !strings.HasSuffix(line, "_cropped.png") {
		t.Errorf("stdout line = %q, want the cropped file path", line)
	}
	if _, err := os.Stat(line); err != nil {
		t.Errorf("printed path is not a saved file: %v", err)
	}
}

func TestProcessFrameBlankPagePrintsNothing(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(prev) })

	a := &app{cfg: &config.Config{Host: "10.11.99.1", OutputDir: t.TempDir()}}

	got := captureStdout(t, func() error { return a.processFrame(testFrame(false), time.Now()) })
	if got != "" {
		t.Errorf("stdout = %q, want empty for a blank page", got)
	}
}
