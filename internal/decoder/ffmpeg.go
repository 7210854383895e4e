package decoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/moonstripe/resnap/internal/framebuffer"
)

// Frame corrections, declared as an ffmpeg filter chain: rotate 90 degrees
// clockwise, mirror horizontally, then stretch the e-ink tone range so the
// page reads black on white.
const filterChain = "transpose=1,hflip,curves=all=0.045/0 0.06/1"

// FFmpeg decodes frames by shelling out to ffmpeg.
type FFmpeg struct {
	path string
	geo  framebuffer.Geometry
}

// NewFFmpeg creates an ffmpeg-backed decoder. An empty path means "ffmpeg"
// from PATH.
func NewFFmpeg(path string, geo framebuffer.Geometry) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, geo: geo}
}

func (d *FFmpeg) Decode(ctx context.Context, raw []byte) (image.Image, error) {
	dir, err := os.MkdirTemp("", "resnap")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	defer os.RemoveAll(dir)

	rawPath := filepath.Join(dir, "frame.raw")
	outPath := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(rawPath, raw, 0o600); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.path, d.args(rawPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	img, err := imaging.Open(outPath)
	if err != nil {
		return nil, fmt.Errorf("read decoded frame: %w", err)
	}
	return img, nil
}

func (d *FFmpeg) args(in, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", d.geo.PixelFormat,
		"-video_size", fmt.Sprintf("%dx%d", d.geo.Width, d.geo.Height),
		"-i", in,
		"-vf", filterChain,
		"-y", out,
	}
}

// Detect returns the ffmpeg decoder when the binary is installed and the
// native decoder otherwise.
func Detect(ffmpegPath string, geo framebuffer.Geometry) Decoder {
	path := ffmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	if _, err := exec.LookPath(path); err != nil {
		log.Printf("%s not found, decoding frames natively", path)
		return NewNative(geo)
	}
	return NewFFmpeg(path, geo)
}
