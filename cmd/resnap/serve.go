package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonstripe/resnap/internal/live"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		quality  int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream the tablet screen to a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), addr, interval, quality)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "capture interval")
	cmd.Flags().IntVar(&quality, "quality", 70, "JPEG quality of the stream (1-100)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string, interval time.Duration, quality int) error {
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

	return live.NewServer(addr, grabber.Frames(), quality).Run(ctx)
}
