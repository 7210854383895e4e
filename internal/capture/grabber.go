package capture

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/moonstripe/resnap/internal/decoder"
	"github.com/moonstripe/resnap/internal/framebuffer"
)

// Grabber pulls frames out of the device framebuffer: resolve the owning
// process, locate the mapping, fetch one frame, decode it.
type Grabber struct {
	fb  *framebuffer.Client
	dec decoder.Decoder

	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	pid    string
	offset uint64

	frameCh chan *Frame
	stopCh  chan struct{}
	running bool
}

// NewGrabber creates a grabber. The interval drives the Start loop only;
// one-shot Grab calls ignore it.
func NewGrabber(fb *framebuffer.Client, dec decoder.Decoder, interval time.Duration) *Grabber {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Grabber{
		fb:       fb,
		dec:      dec,
		interval: interval,
		timeout:  30 * time.Second,
		frameCh:  make(chan *Frame, 2),
		stopCh:   make(chan struct{}),
	}
}

// Grab captures and decodes a single frame. The process and mapping are
// resolved on first use and cached; a failed fetch drops the cache so the
// next call resolves again.
func (g *Grabber) Grab(ctx context.Context) (*Frame, error) {
	pid, offset, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := g.fb.Fetch(ctx, pid, offset)
	if err != nil {
		g.invalidate()
		return nil, err
	}
	img, err := g.dec.Decode(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &Frame{Image: img, Timestamp: time.Now().UTC()}, nil
}

func (g *Grabber) resolve(ctx context.Context) (string, uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pid != "" {
		return g.pid, g.offset, nil
	}
	pid, err := g.fb.Resolve(ctx)
	if err != nil {
		return "", 0, err
	}
	base, err := g.fb.Locate(ctx, pid)
	if err != nil {
		return "", 0, err
	}
	g.pid = pid
	g.offset = uint64(int64(base) + g.fb.Geometry().SkipCorrection)
	return g.pid, g.offset, nil
}

func (g *Grabber) invalidate() {
	g.mu.Lock()
	g.pid = ""
	g.offset = 0
	g.mu.Unlock()
}

// Start begins the capture loop at the configured interval.
func (g *Grabber) Start() error {
	if g.running {
		return fmt.Errorf("already running")
	}
	g.running = true
	go g.loop()
	return nil
}

// Stop ends the capture loop and closes the frames channel.
func (g *Grabber) Stop() {
	if !g.running {
		return
	}
	g.running = false
	close(g.stopCh)
}

// Frames returns the channel the capture loop delivers to.
func (g *Grabber) Frames() <-chan *Frame {
	return g.frameCh
}

func (g *Grabber) loop() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	defer close(g.frameCh)

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
			f, err := g.Grab(ctx)
			cancel()
			if err != nil {
				log.Printf("grab: %v", err)
				continue
			}
			select {
			case g.frameCh <- f:
			default:
			}
		}
	}
}
