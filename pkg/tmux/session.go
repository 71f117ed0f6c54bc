package tmux

import (
	"context"
	"strings"

	"github.com/grovetools/vigil/errors"
)

func (c *Client) SessionExists(ctx context.Context, sessionName string) (bool, error) {
	if err := c.builder.Validate("sessionName", sessionName); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid session name").
			WithDetail("session", sessionName)
	}

	_, err := c.run(ctx, "has-session", "-t", "="+sessionName)
	if err == nil {
		return true, nil
	}

	if ctx.Err() != nil {
		return false, err
	}
	if noServer(err) || strings.Contains(err.Error(), "exit status 1") {
		return false, nil
	}

	return false, err
}

// Capture returns the visible lines of the session's active pane with
// wrapped lines joined and trailing blank lines dropped. It never writes to
// the session. A missing session is a SESSION_NOT_FOUND error.
func (c *Client) Capture(ctx context.Context, sessionName string) ([]string, error) {
	exists, err := c.SessionExists(ctx, sessionName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.SessionNotFound(sessionName)
	}

	output, err := c.run(ctx, "capture-pane", "-p", "-J", "-t", paneTarget(sessionName))
	if err != nil {
		return nil, errors.CommandFailed("tmux capture-pane", err).WithDetail("session", sessionName)
	}

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// SendKeys delivers one fallback input to the session's active pane in a
// single tmux invocation. "{Name}" sends the tmux key Name, "" presses Enter
// and anything else is typed literally and submitted with Enter.
func (c *Client) SendKeys(ctx context.Context, sessionName string, input string) error {
	if err := c.builder.Validate("sessionName", sessionName); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid session name").
			WithDetail("session", sessionName)
	}

	target := paneTarget(sessionName)
	var args []string
	switch key, isKey := KeyToken(input); {
	case isKey:
		if err := c.builder.Validate("keyName", key); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid key").WithDetail("input", input)
		}
		args = []string{"send-keys", "-t", target, key}
	case input == "":
		args = []string{"send-keys", "-t", target, "Enter"}
	default:
		args = []string{"send-keys", "-t", target, "-l", input, ";", "send-keys", "-t", target, "Enter"}
	}

	if _, err := c.run(ctx, args...); err != nil {
		return errors.CommandFailed("tmux send-keys", err).WithDetail("session", sessionName)
	}
	return nil
}

// NewSession starts a detached session running command in dir.
func (c *Client) NewSession(ctx context.Context, sessionName, dir, command string) error {
	if err := c.builder.Validate("sessionName", sessionName); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid session name").
			WithDetail("session", sessionName)
	}
	args := []string{"new-session", "-d", "-s", sessionName}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if command != "" {
		args = append(args, command)
	}
	_, err := c.run(ctx, args...)
	return err
}

func (c *Client) KillSession(ctx context.Context, sessionName string) error {
	_, err := c.run(ctx, "kill-session", "-t", "="+sessionName)
	return err
}

func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	output, err := c.run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		if noServer(err) || strings.Contains(err.Error(), "exit status 1") {
			return []string{}, nil
		}
		return nil, err
	}

	return strings.Split(strings.TrimSpace(output), "\n"), nil
}

// KeyToken reports whether input is a {Name} key token and returns Name.
func KeyToken(input string) (string, bool) {
	if len(input) < 3 || !strings.HasPrefix(input, "{") || !strings.HasSuffix(input, "}") {
		return "", false
	}
	return input[1 : len(input)-1], true
}

// paneTarget addresses the active pane of exactly sessionName.
func paneTarget(sessionName string) string {
	return "=" + sessionName + ":"
}
