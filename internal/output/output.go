// Package output writes capture artifacts to disk.
package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const (
	stampLayout = "01-02-2006-15-04-05"
	fullSuffix  = "-remarkable-screen.png"
)

// Writer saves decoded frames and their crops under one directory.
type Writer struct {
	dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Stamp renders a capture time the way filenames carry it (UTC).
func Stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// SaveFull writes the full decoded screen and returns its path.
func (w *Writer) SaveFull(img image.Image, t time.Time) (string, error) {
	path := filepath.Join(w.dir, Stamp(t)+fullSuffix)
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save frame: %w", err)
	}
	return path, nil
}

// SaveCropped writes the cropped content image next to the full one.
func (w *Writer) SaveCropped(img image.Image, t time.Time) (string, error) {
	stem := strings.TrimSuffix(Stamp(t)+fullSuffix, ".png")
	path := filepath.Join(w.dir, stem+"_cropped.png")
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save crop: %w", err)
	}
	return path, nil
}
