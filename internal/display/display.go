package display

import "image"

// Display renders captured frames in a window.
type Display interface {
	Run() error
	SetFrame(img image.Image)
	Close()
}
