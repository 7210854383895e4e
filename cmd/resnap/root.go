package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonstripe/resnap/internal/capture"
	"github.com/moonstripe/resnap/internal/config"
	"github.com/moonstripe/resnap/internal/decoder"
	"github.com/moonstripe/resnap/internal/extract"
	"github.com/moonstripe/resnap/internal/framebuffer"
	"github.com/moonstripe/resnap/internal/journal"
	"github.com/moonstripe/resnap/internal/logutil"
	"github.com/moonstripe/resnap/internal/output"
	"github.com/moonstripe/resnap/internal/remote"
)

// app carries flag values and the resolved configuration across commands.
type app struct {
	host    string
	dir     string
	sshUser string
	sshKey  string
	decoder string
	envFile string
	logFile string
	verbose bool

	cfg *config.Config
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "resnap",
		Short:         "Capture the reMarkable 2 screen over SSH and crop out the handwriting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGrab(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.host, "ip-address", "I", "", "tablet address (RESNAP_HOST)")
	flags.StringVarP(&a.dir, "directory", "d", ".", "directory to save captures in")
	flags.StringVar(&a.sshUser, "ssh-user", "root", "SSH user on the tablet")
	flags.StringVar(&a.sshKey, "ssh-key", "", "SSH private key file")
	flags.StringVar(&a.decoder, "decoder", config.DecoderAuto, "frame decoder: auto, ffmpeg or native")
	flags.StringVar(&a.envFile, "env-file", "", "env file to load (default .env)")
	flags.StringVar(&a.logFile, "log-file", "", "append logs to this file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log progress to stderr")

	cmd.AddCommand(newServeCmd(a), newViewCmd(a), newHistoryCmd(a))
	return cmd
}

// setup resolves the effective configuration. Flags the user actually set
// win over the environment and the env file; everything else falls through
// to config.Load.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("ip-address") {
		cfg.Host = a.host
	}
	if flags.Changed("directory") {
		cfg.OutputDir = a.dir
	}
	if flags.Changed("ssh-user") {
		cfg.SSHUser = a.sshUser
	}
	if flags.Changed("ssh-key") {
		cfg.SSHKey = a.sshKey
	}
	if flags.Changed("decoder") {
		cfg.Decoder = a.decoder
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	a.cfg = cfg
	return logutil.Setup(a.verbose, cfg.LogFile)
}

// connect dials the tablet and builds a grabber around the connection.
// The returned func closes the SSH connection.
func (a *app) connect(interval time.Duration) (*capture.Grabber, func() error, error) {
	client, err := remote.Dial(remote.ClientConfig{
		Host:     a.cfg.Host,
		User:     a.cfg.SSHUser,
		KeyFile:  a.cfg.SSHKey,
		Password: a.cfg.SSHPassword,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("connected to %s", a.cfg.Host)

	fb := framebuffer.NewClient(client, framebuffer.Xochitl(), framebuffer.ReMarkable2())
	grabber := capture.NewGrabber(fb, a.newDecoder(), interval)
	return grabber, client.Close, nil
}

func (a *app) newDecoder() decoder.Decoder {
	geo := framebuffer.ReMarkable2()
	switch a.cfg.Decoder {
	case config.DecoderFFmpeg:
		return decoder.NewFFmpeg(a.cfg.FFmpeg, geo)
	case config.DecoderNative:
		return decoder.NewNative(geo)
	default:
		return decoder.Detect(a.cfg.FFmpeg, geo)
	}
}

func (a *app) journalPath() string {
	return filepath.Join(a.cfg.OutputDir, ".resnap", "journal.db")
}

// runGrab captures a single frame, saves it, and crops out the content if
// the page holds any. A blank page is a normal zero-exit outcome.
func (a *app) runGrab(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	grabber, closeConn, err := a.connect(0)
	if err != nil {
		return err
	}
	defer closeConn()

	start := time.Now()
	frame, err := grabber.Grab(ctx)
	if err != nil {
		return err
	}
	log.Printf("captured frame in %s", time.Since(start).Round(time.Millisecond))
	return a.processFrame(frame, start)
}

// processFrame saves the decoded frame, crops out the content if the page
// holds any, and journals the result. The cropped path is the only thing
// printed to stdout; a blank page prints nothing.
func (a *app) processFrame(frame *capture.Frame, start time.Time) error {
	writer, err := output.NewWriter(a.cfg.OutputDir)
	if err != nil {
		return err
	}
	fullPath, err := writer.SaveFull(frame.Image, frame.Timestamp)
	if err != nil {
		return err
	}
	log.Printf("saved full frame to %s", fullPath)

	res := extract.New(extract.DefaultParams()).Extract(frame.Image)
	croppedPath := ""
	if res.Found {
		croppedPath, err = writer.SaveCropped(res.Cropped, frame.Timestamp)
		if err != nil {
			return err
		}
		fmt.Println(croppedPath)
	} else {
		log.Printf("no significant content found, skipping crop")
	}

	a.journalCapture(frame, res, fullPath, croppedPath, time.Since(start))
	return nil
}

// journalCapture records the capture. Journal failures are logged, not
// fatal: the screenshots on disk are the point.
func (a *app) journalCapture(frame *capture.Frame, res extract.Result, fullPath, croppedPath string, took time.Duration) {
	store, err := journal.Open(a.journalPath())
	if err != nil {
		log.Printf("journal: %v", err)
		return
	}
	defer store.Close()

	rec := journal.Record{
		CapturedAt: frame.Timestamp,
		Host:       a.cfg.Host,
		Outcome:    journal.OutcomeEmpty,
		FullPath:   fullPath,
		Duration:   took,
	}
	if res.Found {
		rec.Outcome = journal.OutcomeContent
		rec.CroppedPath = croppedPath
		rec.MinX = res.Box.Min.X
		rec.MinY = res.Box.Min.Y
		rec.MaxX = res.Box.Max.X
		rec.MaxY = res.Box.Max.Y
		rec.Regions = res.Kept
	}
	if err := store.Add(rec); err != nil {
		log.Printf("journal: %v", err)
	}
}
