package tmux

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/grovetools/vigil/command"
)

// SocketEnv selects a dedicated tmux server (tmux -L) for every client
// created with NewClient. Tests use it to isolate their sessions.
const SocketEnv = "VIGIL_TMUX_SOCKET"

type Client struct {
	builder *command.SafeBuilder
	socket  string // Socket name for dedicated tmux server (uses -L flag)
}

func NewClient() (*Client, error) {
	return NewClientWithSocket(os.Getenv(SocketEnv))
}

// NewClientWithSocket creates a tmux client that uses a dedicated server socket.
// An empty socket means the default server.
func NewClientWithSocket(socket string) (*Client, error) {
	return NewClientWithExecutor(&command.RealExecutor{}, socket)
}

// NewClientWithExecutor creates a client whose tmux processes are created by
// exec. It fails when tmux cannot be resolved through exec.
func NewClientWithExecutor(exec command.Executor, socket string) (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux command not found in PATH: %w", err)
	}

	return &Client{
		builder: command.NewSafeBuilderWithExecutor(exec),
		socket:  socket,
	}, nil
}

// Socket returns the socket name this client uses, or empty string for default.
func (c *Client) Socket() string {
	return c.socket
}

// KillServer kills the tmux server for this client's socket.
// If the client uses the default socket, this will kill the default tmux server (use with caution!).
func (c *Client) KillServer(ctx context.Context) error {
	_, err := c.run(ctx, "kill-server")
	if err != nil && noServer(err) {
		return nil
	}
	return err
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}

	cmd, err := c.builder.Build(ctx, "tmux", args...)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		cmdStr := "tmux " + strings.Join(args, " ")
		return string(output), fmt.Errorf("tmux command failed: `%s`: %w, output: %s", cmdStr, err, string(output))
	}

	return string(output), nil
}

func noServer(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no server running") || strings.Contains(msg, "error connecting to")
}
