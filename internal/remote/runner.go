// Package remote runs commands on the tablet and returns their output.
package remote

import (
	"context"
	"fmt"
	"strings"
)

// Runner executes a command on the remote device and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError reports a command that ran on the device and exited nonzero.
// Callers use it to tell "the device said no" apart from transport failures.
type ExitError struct {
	Status int
	Stderr []byte
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("remote command exited with status %d", e.Status)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + s
	}
	return msg
}
