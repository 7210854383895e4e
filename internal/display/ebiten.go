package display

import (
	"image"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenDisplay renders tablet frames using Ebitengine. The window opens
// at half the tablet's portrait resolution and can be resized freely.
type EbitenDisplay struct {
	mu     sync.Mutex
	frame  image.Image
	dirty  bool
	closed bool

	ebitenImage *ebiten.Image
}

// NewEbitenDisplay creates an Ebitengine-based viewer.
func NewEbitenDisplay() *EbitenDisplay {
	return &EbitenDisplay{}
}

// SetFrame updates the displayed frame (called from the capture goroutine).
func (d *EbitenDisplay) SetFrame(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = img
	d.dirty = true
}

// Close makes the game loop exit on its next update.
func (d *EbitenDisplay) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(702, 936)
	ebiten.SetWindowTitle("resnap")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(d)
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ebiten.Termination
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame := d.frame
	dirty := d.dirty
	d.dirty = false
	d.mu.Unlock()

	if frame == nil {
		return
	}
	if dirty || d.ebitenImage == nil {
		d.ebitenImage = ebiten.NewImageFromImage(frame)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	fw, fh := float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy())
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), fw, fh)

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(d.ebitenImage, op)
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
