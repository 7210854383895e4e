package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ClientConfig describes how to reach the device.
type ClientConfig struct {
	Host     string
	Port     int           // 22 if zero
	User     string        // "root" if empty
	KeyFile  string        // private key path, optional
	Password string        // tried after key and agent
	Timeout  time.Duration // dial timeout, 10s if zero
}

// Client runs commands over a single SSH connection, one session per command.
type Client struct {
	conn *ssh.Client
}

// Dial connects to the device. Host keys are not verified: tablets regenerate
// theirs on every reflash.
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh: host required")
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	user := cfg.User
	if user == "" {
		user = "root"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func authMethods(cfg ClientConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key %s: %w", cfg.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("ssh: no auth method available (key file, agent or password)")
	}
	return methods, nil
}

// Output runs the command and returns its stdout. A command that runs but
// exits nonzero returns its partial stdout together with an *ExitError.
func (c *Client) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	sess, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	line := CommandLine(name, args...)

	done := make(chan error, 1)
	go func() { done <- sess.Run(line) }()

	select {
	case <-ctx.Done():
		sess.Close() // unblocks Run
		<-done
		return nil, ctx.Err()
	case err = <-done:
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{Status: exitErr.ExitStatus(), Stderr: stderr.Bytes()}
		}
		return nil, fmt.Errorf("ssh run %s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Close tears down the SSH connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// CommandLine assembles a shell command line with each argument quoted.
func CommandLine(name string, args ...string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}
