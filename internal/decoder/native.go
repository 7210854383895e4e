package decoder

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/moonstripe/resnap/internal/framebuffer"
)

// Tone curve control points. E-ink panels report ink in a narrow low band of
// the 16-bit range; everything at or below lo becomes black, at or above hi
// becomes white, linear in between.
const (
	curveLo = 0.045
	curveHi = 0.06
)

// Native decodes frames in-process: little-endian 16-bit gray samples, the
// tone curve, then rotate 90 degrees clockwise and mirror horizontally.
type Native struct {
	geo framebuffer.Geometry
}

// NewNative creates the pure-Go decoder for the given geometry.
func NewNative(geo framebuffer.Geometry) *Native {
	return &Native{geo: geo}
}

func (d *Native) Decode(_ context.Context, raw []byte) (image.Image, error) {
	if d.geo.BytesPerPixel != 2 {
		return nil, fmt.Errorf("native decode: unsupported pixel size %d", d.geo.BytesPerPixel)
	}
	if len(raw) != d.geo.FrameBytes() {
		return nil, fmt.Errorf("native decode: frame is %d bytes, want %d", len(raw), d.geo.FrameBytes())
	}

	gray := image.NewGray(image.Rect(0, 0, d.geo.Width, d.geo.Height))
	span := curveHi - curveLo
	for i := range gray.Pix {
		v := float64(binary.LittleEndian.Uint16(raw[2*i:]))/65535 - curveLo
		v /= span
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		gray.Pix[i] = uint8(math.Round(v * 255))
	}

	return imaging.FlipH(imaging.Rotate270(gray)), nil
}
