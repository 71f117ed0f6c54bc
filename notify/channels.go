package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/grovetools/vigil/command"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/util/pathutil"
	"github.com/grovetools/vigil/version"
	"github.com/sirupsen/logrus"
)

// LogChannel writes the alert to the structured log. It only fails when
// given no logger.
type LogChannel struct {
	logger *logrus.Entry
}

func NewLogChannel(logger *logrus.Entry) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	if c.logger == nil {
		return fmt.Errorf("no logger")
	}
	c.logger.WithFields(logrus.Fields{
		"run_id":   msg.RunID,
		"sessions": strings.Join(msg.SessionIDs, ","),
	}).Warn(msg.Title + "\n" + msg.Body)
	return nil
}

// ShellChannel runs a command with the message as JSON on stdin.
type ShellChannel struct {
	command string
	args    []string
	builder *command.SafeBuilder
}

func NewShellChannel(cmd string, args ...string) *ShellChannel {
	return &ShellChannel{
		command: cmd,
		args:    args,
		builder: command.NewSafeBuilder(),
	}
}

func (c *ShellChannel) Name() string { return "shell" }

func (c *ShellChannel) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	cmd, err := c.builder.Build(ctx, pathutil.MustExpand(c.command), c.args...)
	if err != nil {
		return err
	}
	defer cmd.Release()

	execCmd := cmd.Exec()
	execCmd.Stdin = bytes.NewReader(payload)
	execCmd.Env = append(os.Environ(),
		"VIGIL_RUN_ID="+msg.RunID,
		"VIGIL_TITLE="+msg.Title,
		"VIGIL_SESSIONS="+strings.Join(msg.SessionIDs, ","),
	)
	if out, err := execCmd.CombinedOutput(); err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return errors.CommandFailed(cmd.String(), err)
	}
	return nil
}

// WebhookChannel POSTs the message as JSON.
type WebhookChannel struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewWebhookChannel(url string, headers map[string]string) *WebhookChannel {
	return &WebhookChannel{
		url:     os.ExpandEnv(url),
		headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(webhookPayload{
		Text:    msg.Title,
		Message: msg,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, os.ExpandEnv(v))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// webhookPayload carries a chat-friendly "text" next to the full message.
type webhookPayload struct {
	Text string `json:"text"`
	Message
}

// FileboxChannel leaves a markdown file in an inbox directory for offline
// review.
type FileboxChannel struct {
	dir string
	mu  sync.Mutex
}

func NewFileboxChannel(dir string) *FileboxChannel {
	return &FileboxChannel{dir: dir}
}

func (c *FileboxChannel) Name() string { return "filebox" }

func (c *FileboxChannel) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir, err := pathutil.Expand(c.dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}

	runID := msg.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	name := fmt.Sprintf("%s_%s.md", msg.Timestamp.UTC().Format("2006-01-02_15-04-05"), runID)

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create inbox file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, FormatMarkdown(msg)); err != nil {
		return fmt.Errorf("failed to write inbox file: %w", err)
	}
	return nil
}

// FormatMarkdown renders msg as an inbox entry.
func FormatMarkdown(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", msg.Title)
	fmt.Fprintf(&b, "**Time:** %s\n\n", msg.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Run:** %s\n\n", msg.RunID)
	if len(msg.SessionIDs) > 0 {
		fmt.Fprintf(&b, "**Sessions:** %s\n\n", strings.Join(msg.SessionIDs, ", "))
	}
	b.WriteString("## Details\n\n")
	b.WriteString(msg.Body)
	if !strings.HasSuffix(msg.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
