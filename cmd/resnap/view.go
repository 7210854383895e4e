package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonstripe/resnap/internal/display"
)

func newViewCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Mirror the tablet screen in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context(), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "capture interval")
	return cmd
}

func (a *app) runView(ctx context.Context, interval time.Duration) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	grabber, closeConn, err := a.connect(interval)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := grabber.Start(); err != nil {
		return err
	}
	defer grabber.Stop()

	viewer := display.NewEbitenDisplay()
	go func() {
		for frame := range grabber.Frames() {
			viewer.SetFrame(frame.Image)
		}
	}()
	go func() {
		<-ctx.Done()
		viewer.Close()
	}()

	// Ebitengine insists on the main goroutine.
	return viewer.Run()
}
