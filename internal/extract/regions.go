package extract

import "image"

// Mask pixel values.
const (
	inkValue   = 0
	background = 255
)

// Region is one 8-connected component of ink, represented by its boundary:
// every member pixel with at least one 4-neighbor outside the component.
type Region struct {
	Points []image.Point
}

// Size returns the number of boundary points. Thin strokes are almost all
// boundary, so this tracks stroke length rather than filled area.
func (r Region) Size() int {
	return len(r.Points)
}

// FindRegions labels the 8-connected ink components of a binary mask and
// returns each component's boundary points.
func FindRegions(mask *image.Gray) []Region {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)

	var regions []Region
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || mask.GrayAt(x, y).Y != inkValue {
				continue
			}
			regions = append(regions, traceComponent(mask, visited, x, y))
		}
	}
	return regions
}

// traceComponent flood-fills one component from (sx,sy) and collects its
// boundary along the way.
func traceComponent(mask *image.Gray, visited []bool, sx, sy int) Region {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	queue := []image.Point{{sx, sy}}
	visited[sy*w+sx] = true

	var boundary []image.Point
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if isBoundary(mask, p.X, p.Y) {
			boundary = append(boundary, p)
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if visited[ny*w+nx] || mask.GrayAt(nx, ny).Y != inkValue {
					continue
				}
				visited[ny*w+nx] = true
				queue = append(queue, image.Point{nx, ny})
			}
		}
	}
	return Region{Points: boundary}
}

// isBoundary reports whether the ink pixel at (x,y) touches background or
// the image edge through any 4-neighbor.
func isBoundary(mask *image.Gray, x, y int) bool {
	b := mask.Bounds()
	for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d.X, y+d.Y
		if nx < 0 || ny < 0 || nx >= b.Dx() || ny >= b.Dy() {
			return true
		}
		if mask.GrayAt(nx, ny).Y != inkValue {
			return true
		}
	}
	return false
}
