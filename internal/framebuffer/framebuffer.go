// Package framebuffer finds and reads the device framebuffer through the
// remote process that maps it.
package framebuffer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moonstripe/resnap/internal/remote"
)

var (
	// ErrProcessNotFound means no running process owns the framebuffer device.
	ErrProcessNotFound = errors.New("framebuffer: process not found")
	// ErrMappingNotFound means the device node is not mapped where expected.
	ErrMappingNotFound = errors.New("framebuffer: device mapping not found")
	// ErrAddressParse means a maps entry could not be parsed.
	ErrAddressParse = errors.New("framebuffer: cannot parse mapping address")
	// ErrIncompleteCapture means the device returned less or more than one frame.
	ErrIncompleteCapture = errors.New("framebuffer: incomplete frame capture")
)

// Geometry describes the framebuffer layout of one device class.
type Geometry struct {
	Width         int
	Height        int
	BytesPerPixel int
	PixelFormat   string // ffmpeg name for the sample layout
	// SkipCorrection is the empirical gap between the mapping base address
	// and the first pixel.
	SkipCorrection int64
}

// FrameBytes returns the size of one full frame.
func (g Geometry) FrameBytes() int {
	return g.Width * g.Height * g.BytesPerPixel
}

// ReMarkable2 is the framebuffer layout of a reMarkable 2 tablet.
func ReMarkable2() Geometry {
	return Geometry{
		Width:          1872,
		Height:         1404,
		BytesPerPixel:  2,
		PixelFormat:    "gray16le",
		SkipCorrection: 7,
	}
}

// Device names the process that owns the framebuffer and its device node.
type Device struct {
	Process string
	Path    string
}

// Xochitl is the reMarkable UI process and its framebuffer node.
func Xochitl() Device {
	return Device{Process: "xochitl", Path: "/dev/fb0"}
}

// Client reads the framebuffer of a remote device through a Runner.
type Client struct {
	runner remote.Runner
	dev    Device
	geo    Geometry
}

// NewClient creates a framebuffer client for the given device class.
func NewClient(r remote.Runner, dev Device, geo Geometry) *Client {
	return &Client{runner: r, dev: dev, geo: geo}
}

// Geometry returns the device geometry the client was built with.
func (c *Client) Geometry() Geometry {
	return c.geo
}

// Resolve returns the PID of the process that maps the framebuffer device.
// Candidates are checked in pidof order; a candidate whose maps cannot be
// read or parsed fails the check and the scan moves on.
func (c *Client) Resolve(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, "/bin/pidof", c.dev.Process)
	if err != nil {
		var exitErr *remote.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s is not running", ErrProcessNotFound, c.dev.Process)
		}
		return "", fmt.Errorf("pidof %s: %w", c.dev.Process, err)
	}
	pids := strings.Fields(string(out))
	if len(pids) == 0 {
		return "", fmt.Errorf("%w: %s is not running", ErrProcessNotFound, c.dev.Process)
	}

	for _, pid := range pids {
		data, err := c.readMaps(ctx, pid)
		if err != nil {
			continue
		}
		mappings, err := ParseMaps(data)
		if err != nil {
			continue
		}
		if _, ok := BaseAddress(mappings, c.dev.Path); ok {
			return pid, nil
		}
	}
	return "", fmt.Errorf("%w: no %s process maps %s", ErrMappingNotFound, c.dev.Process, c.dev.Path)
}

// Locate returns the base address of the framebuffer within /proc/PID/mem:
// the start of the last maps entry whose path is the device node.
func (c *Client) Locate(ctx context.Context, pid string) (uint64, error) {
	data, err := c.readMaps(ctx, pid)
	if err != nil {
		return 0, fmt.Errorf("read maps of pid %s: %w", pid, err)
	}
	mappings, err := ParseMaps(data)
	if err != nil {
		return 0, err
	}
	base, ok := BaseAddress(mappings, c.dev.Path)
	if !ok {
		return 0, fmt.Errorf("%w: %s in pid %s", ErrMappingNotFound, c.dev.Path, pid)
	}
	return base, nil
}

// Fetch reads exactly one frame of pixel data from /proc/PID/mem starting at
// offset. The first dd performs a streaming skip so no frame bytes are
// consumed positioning the read; the second captures one frame-sized block.
// A device-side read error truncates the stream rather than failing the
// call; anything but an exact frame is reported as ErrIncompleteCapture.
func (c *Client) Fetch(ctx context.Context, pid string, offset uint64) ([]byte, error) {
	n := c.geo.FrameBytes()
	script := fmt.Sprintf(
		"{ dd bs=1 skip=%d count=0 && dd bs=%d count=1; } < /proc/%s/mem 2>/dev/null",
		offset, n, pid,
	)
	out, err := c.runner.Output(ctx, "sh", "-c", script)
	if err != nil {
		// A read error mid-stream makes dd exit nonzero with the output
		// truncated. The bytes that did arrive still count; the length
		// check below classifies the result.
		var exitErr *remote.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("read framebuffer of pid %s: %w", pid, err)
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrIncompleteCapture, len(out), n)
	}
	return out, nil
}

func (c *Client) readMaps(ctx context.Context, pid string) ([]byte, error) {
	return c.runner.Output(ctx, "cat", "/proc/"+pid+"/maps")
}
