// Package decoder turns raw framebuffer dumps into screen images.
package decoder

import (
	"context"
	"image"
)

// Decoder decodes one raw frame into an image. Frame corrections
// (orientation and tone) are part of decoding: the returned image is in
// reading orientation with ink rendered dark on a light page.
type Decoder interface {
	Decode(ctx context.Context, raw []byte) (image.Image, error)
}
