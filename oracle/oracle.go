// Package oracle is the optional external status check consulted in full
// runs. A configured oracle that fails lowers the run's health.
package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/grovetools/vigil/command"
	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/util/pathutil"
	"github.com/grovetools/vigil/version"
)

// Command is healthy when its process exits 0.
type Command struct {
	argv    []string
	builder *command.SafeBuilder
}

func NewCommand(argv ...string) *Command {
	return &Command{argv: argv, builder: command.NewSafeBuilder()}
}

func (c *Command) Check(ctx context.Context) error {
	if len(c.argv) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "oracle command is empty")
	}
	cmd, err := c.builder.Build(ctx, pathutil.MustExpand(c.argv[0]), c.argv[1:]...)
	if err != nil {
		return err
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if detail := lastLine(string(out)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return errors.Wrap(err, errors.ErrCodeOracleFailed, "status oracle reported a problem").
			WithDetail("command", cmd.String())
	}
	return nil
}

// HTTP is healthy when its URL answers with a 2xx status.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string) *HTTP {
	return &HTTP{url: os.ExpandEnv(url), client: &http.Client{}}
}

func (h *HTTP) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid oracle url")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeOracleFailed, "status oracle unreachable").
			WithDetail("url", h.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("status oracle returned %d", resp.StatusCode)
		if detail := lastLine(string(body)); detail != "" {
			msg += ": " + detail
		}
		return errors.New(errors.ErrCodeOracleFailed, msg).
			WithDetail("url", h.url).
			WithDetail("status", resp.StatusCode)
	}
	return nil
}

// Checker is what both oracle kinds implement.
type Checker interface {
	Check(ctx context.Context) error
}

// FromConfig returns the configured oracle, or nil when none is set.
func FromConfig(cfg config.OracleConfig) Checker {
	switch {
	case len(cfg.Command) > 0:
		return NewCommand(cfg.Command...)
	case cfg.URL != "":
		return NewHTTP(cfg.URL)
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
