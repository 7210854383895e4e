package logutil

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupQuietByDefault(t *testing.T) {
	prev := log.Writer()
	defer log.SetOutput(prev)

	if err := Setup(false, ""); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if log.Writer() != io.Discard {
		t.Errorf("log.Writer() = %T, want io.Discard", log.Writer())
	}
}

func TestSetupWritesToFile(t *testing.T) {
	prev := log.Writer()
	defer log.SetOutput(prev)

	path := filepath.Join(t.TempDir(), "logs", "resnap.log")
	if err := Setup(false, path); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	log.Print("hello from the test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("log file contents = %q, want the logged line", data)
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resnap.log")

	w, err := newRotatingWriter(path)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	w.max = 64

	line := bytes.Repeat([]byte("x"), 40)
	for i := 0; i < 3; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() #%d error = %v", i, err)
		}
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s) error = %v", path, err)
	}
	if st.Size() != 40 {
		t.Errorf("current file size = %d, want 40", st.Size())
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected first archive after rotation: %v", err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Errorf("expected second archive after rotation: %v", err)
	}
}

func TestRotatingWriterDropsOldestArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resnap.log")

	w, err := newRotatingWriter(path)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	w.max = 8

	// Each write rotates; five writes would need four archives.
	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write() #%d error = %v", i, err)
		}
	}

	for i := 1; i <= maxArchives; i++ {
		if _, err := os.Stat(fmt.Sprintf("%s.%d", path, i)); err != nil {
			t.Errorf("archive .%d missing: %v", i, err)
		}
	}
	if _, err := os.Stat(path + ".4"); !os.IsNotExist(err) {
		t.Errorf("archive .4 should not exist, stat err = %v", err)
	}
}

func TestRotatingWriterResumesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resnap.log")
	if err := os.WriteFile(path, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newRotatingWriter(path)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	if w.size != int64(len("earlier run\n")) {
		t.Errorf("size = %d, want %d", w.size, len("earlier run\n"))
	}
	if _, err := w.Write([]byte("this run\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "earlier run\nthis run\n"; got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}
}
