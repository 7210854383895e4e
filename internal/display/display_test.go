package display

import (
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		name                    string
		viewW, viewH            float64
		frameW, frameH          float64
		scale, offsetX, offsetY float64
	}{
		{"exact fit", 1404, 1872, 1404, 1872, 1, 0, 0},
		{"half size", 702, 936, 1404, 1872, 0.5, 0, 0},
		{"letterbox wide view", 2000, 936, 1404, 1872, 0.5, 649, 0},
		{"letterbox tall view", 702, 2000, 1404, 1872, 0.5, 0, 532},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, ox, oy := aspectFitTransform(tt.viewW, tt.viewH, tt.frameW, tt.frameH)
			if scale != tt.scale || ox != tt.offsetX || oy != tt.offsetY {
				t.Errorf("aspectFitTransform() = (%v, %v, %v), want (%v, %v, %v)",
					scale, ox, oy, tt.scale, tt.offsetX, tt.offsetY)
			}
		})
	}
}

func TestUpdateTerminatesAfterClose(t *testing.T) {
	d := NewEbitenDisplay()
	if err := d.Update(); err != nil {
		t.Fatalf("Update() before Close error = %v", err)
	}

	d.Close()
	if err := d.Update(); err != ebiten.Termination {
		t.Errorf("Update() after Close = %v, want ebiten.Termination", err)
	}
}

func TestSetFrameMarksDirty(t *testing.T) {
	d := NewEbitenDisplay()
	d.SetFrame(image.NewGray(image.Rect(0, 0, 4, 4)))

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		t.Error("frame should be stored")
	}
	if !d.dirty {
		t.Error("frame should be marked dirty for the next draw")
	}
}
