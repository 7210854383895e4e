// Package extract isolates handwritten content in a decoded screen image.
package extract

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Params tunes content extraction. Start from DefaultParams; the zero value
// finds nothing.
type Params struct {
	Threshold     uint8 // gray levels strictly below this count as ink
	ExcludeW      int   // top-left UI zone width, never counted as ink
	ExcludeH      int   // top-left UI zone height
	MinRegionSize int   // a region must have more boundary points than this
	Padding       int   // margin added around the detected box
	MaxXFloor     int   // the right edge never collapses left of this column
}

// DefaultParams matches the reMarkable toolbar layout and typical pen
// stroke weights.
func DefaultParams() Params {
	return Params{
		Threshold:     200,
		ExcludeW:      200,
		ExcludeH:      200,
		MinRegionSize: 100,
		Padding:       50,
		MaxXFloor:     150,
	}
}

// Result reports one extraction. When Found is false the page holds no
// significant content and no crop is produced; that is a normal outcome,
// not an error.
type Result struct {
	Found   bool
	Box     image.Rectangle // padded content box, only valid when Found
	Regions int             // connected ink regions in the mask
	Kept    int             // regions that survived the noise filter
	Cropped image.Image     // cut from the original image, only when Found
}

// Extractor finds the ink bounding box in a frame and crops it out.
type Extractor struct {
	p Params
}

// New creates an extractor with the given tuning.
func New(p Params) *Extractor {
	return &Extractor{p: p}
}

// Extract locates handwritten content in img. The input is never modified;
// the returned crop is cut from the original pixels, not from the mask.
// Extraction is deterministic: the same image always yields the same Result.
func (e *Extractor) Extract(img image.Image) Result {
	gray := toGray(img)
	mask := e.mask(gray)
	regions := FindRegions(mask)

	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	minX, minY := w, h
	maxX, maxY := e.p.MaxXFloor, 0
	kept := 0
	for _, r := range regions {
		if r.Size() <= e.p.MinRegionSize {
			continue
		}
		kept++
		for _, pt := range r.Points {
			if pt.X < minX {
				minX = pt.X
			}
			if pt.Y < minY {
				minY = pt.Y
			}
			if pt.X > maxX {
				maxX = pt.X
			}
			if pt.Y > maxY {
				maxY = pt.Y
			}
		}
	}

	minX -= e.p.Padding
	if minX < 0 {
		minX = 0
	}
	minY -= e.p.Padding
	if minY < 0 {
		minY = 0
	}
	maxX += e.p.Padding
	if maxX > w-1 {
		maxX = w - 1
	}
	maxY += e.p.Padding
	if maxY > h-1 {
		maxY = h - 1
	}

	res := Result{Regions: len(regions), Kept: kept}
	if kept == 0 || minX >= maxX || minY >= maxY {
		return res
	}
	res.Found = true
	res.Box = image.Rect(minX, minY, maxX+1, maxY+1)
	res.Cropped = imaging.Crop(img, res.Box)
	return res
}

// mask binarizes the page: ink pixels become inkValue, everything else
// background. The top-left exclusion zone blanks the UI toolbar so it never
// reads as content.
func (e *Extractor) mask(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	m := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := uint8(background)
			if gray.GrayAt(x, y).Y < e.p.Threshold && !(x < e.p.ExcludeW && y < e.p.ExcludeH) {
				v = inkValue
			}
			m.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return m
}

// toGray converts any decoded frame to 8-bit grayscale at the origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
