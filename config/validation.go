package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/grovetools/vigil/command"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/paths"
	"github.com/grovetools/vigil/pkg/tmux"
	"github.com/moby/patternmatcher"
)

// Defaults applied by SetDefaults.
const (
	DefaultCaptureLines   = 30
	DefaultCaptureTimeout = 5 * time.Second
	DefaultMaxAttempts    = 3
	DefaultSettleDelay    = 3 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
	DefaultVerifyTimeout  = 10 * time.Second
	DefaultNotifyTimeout  = 15 * time.Second
	DefaultOracleTimeout  = 10 * time.Second
	DefaultWorkers        = 4

	MinCaptureLines = 5
	MaxCaptureLines = 50
	MaxAttempts     = 10
	MaxWorkers      = 64
)

// DefaultFallbacks answers yes, then presses Enter alone, then backs out of
// whatever dialog is open.
var DefaultFallbacks = []string{"y", "", "{Escape}"}

var channelTypes = map[string]bool{"log": true, "shell": true, "webhook": true, "filebox": true}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Capture.Lines == 0 {
		c.Capture.Lines = DefaultCaptureLines
	}
	if c.Capture.Timeout == 0 {
		c.Capture.Timeout = Duration(DefaultCaptureTimeout)
	}
	if c.Recovery.MaxAttempts == 0 {
		c.Recovery.MaxAttempts = DefaultMaxAttempts
	}
	if c.Recovery.SettleDelay == 0 {
		c.Recovery.SettleDelay = Duration(DefaultSettleDelay)
	}
	if c.Recovery.AttemptTimeout == 0 {
		c.Recovery.AttemptTimeout = Duration(DefaultAttemptTimeout)
	}
	if c.Recovery.Fallbacks == nil {
		c.Recovery.Fallbacks = append([]string(nil), DefaultFallbacks...)
	}
	if c.Verify.Timeout == 0 {
		c.Verify.Timeout = Duration(DefaultVerifyTimeout)
	}
	if c.Reports.Dir == "" {
		c.Reports.Dir = paths.ReportsDir()
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = Duration(DefaultNotifyTimeout)
	}
	if len(c.Notify.Channels) == 0 {
		c.Notify.Channels = []ChannelConfig{{Type: "log"}}
	}
	for i := range c.Notify.Channels {
		if c.Notify.Channels[i].Type == "filebox" && c.Notify.Channels[i].Dir == "" {
			c.Notify.Channels[i].Dir = paths.FileboxDir()
		}
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = Duration(DefaultOracleTimeout)
	}
	if c.Registry == "" && len(c.Targets) == 0 {
		c.Registry = paths.RegistryFile()
	}
}

// Validate checks if the configuration is valid. Every failure is a
// CONFIG_VALIDATION error, which aborts a run before any unit executes.
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return invalid("workers", fmt.Sprintf("must be between 1 and %d", MaxWorkers), c.Workers)
	}

	if c.Capture.Lines < MinCaptureLines || c.Capture.Lines > MaxCaptureLines {
		return invalid("capture.lines", fmt.Sprintf("must be between %d and %d", MinCaptureLines, MaxCaptureLines), c.Capture.Lines)
	}

	durations := map[string]Duration{
		"capture.timeout":          c.Capture.Timeout,
		"recovery.settle_delay":    c.Recovery.SettleDelay,
		"recovery.attempt_timeout": c.Recovery.AttemptTimeout,
		"verify.timeout":           c.Verify.Timeout,
		"notify.timeout":           c.Notify.Timeout,
		"oracle.timeout":           c.Oracle.Timeout,
	}
	for field, d := range durations {
		if d <= 0 {
			return invalid(field, "must be a positive duration", d.String())
		}
		if d.Std() > command.MaxTimeout {
			return invalid(field, fmt.Sprintf("must not exceed %s", command.MaxTimeout), d.String())
		}
	}

	if err := c.validateRecovery(); err != nil {
		return err
	}

	if err := c.validateSignatures(); err != nil {
		return err
	}

	if c.Registry != "" && len(c.Targets) > 0 {
		return errors.New(errors.ErrCodeConfigValidation, "registry and targets are mutually exclusive")
	}

	if err := c.validateTargets(); err != nil {
		return err
	}

	if len(c.Only) > 0 {
		if _, err := patternmatcher.New(c.Only); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid target filter").
				WithDetail("field", "only")
		}
	}

	if err := c.validateNotify(); err != nil {
		return err
	}

	if len(c.Oracle.Command) > 0 && c.Oracle.URL != "" {
		return errors.New(errors.ErrCodeConfigValidation, "oracle.command and oracle.url are mutually exclusive")
	}
	if c.Oracle.URL != "" {
		if err := validateURL("oracle.url", c.Oracle.URL); err != nil {
			return err
		}
	}

	return validatePath("reports.dir", c.Reports.Dir)
}

func (c *Config) validateRecovery() error {
	if c.Recovery.MaxAttempts < 1 || c.Recovery.MaxAttempts > MaxAttempts {
		return invalid("recovery.max_attempts", fmt.Sprintf("must be between 1 and %d", MaxAttempts), c.Recovery.MaxAttempts)
	}
	if err := ValidateFallbacks(c.Recovery.Fallbacks); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid recovery.fallbacks")
	}
	return nil
}

func (c *Config) validateSignatures() error {
	if c.Signatures.ReplaceDefaults && len(c.Signatures.Custom) == 0 {
		return errors.New(errors.ErrCodeConfigValidation, "signatures.replace_defaults requires at least one custom signature")
	}

	seen := make(map[string]bool)
	for i := range c.Signatures.Custom {
		sig := &c.Signatures.Custom[i]
		if sig.Label == "" || sig.Pattern == "" {
			return errors.New(errors.ErrCodeConfigValidation, "signature needs both label and pattern").
				WithDetail("index", i)
		}
		if seen[sig.Label] {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("duplicate signature label '%s'", sig.Label)).
				WithDetail("label", sig.Label)
		}
		seen[sig.Label] = true
		if err := sig.Compile(); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid pattern for signature '%s'", sig.Label)).
				WithDetail("label", sig.Label)
		}
		if err := ValidateFallbacks(sig.Fallbacks); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid fallbacks for signature '%s'", sig.Label)).
				WithDetail("label", sig.Label)
		}
	}
	return nil
}

func (c *Config) validateTargets() error {
	sb := command.NewSafeBuilder()
	seen := make(map[string]bool)
	for _, target := range c.Targets {
		if target.Name == "" || target.Path == "" {
			return errors.New(errors.ErrCodeConfigValidation, "target needs both name and path").
				WithDetail("target", target.Name)
		}
		if seen[target.Name] {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("duplicate target name '%s'", target.Name)).
				WithDetail("target", target.Name)
		}
		seen[target.Name] = true
		if target.Session != "" {
			if err := sb.Validate("sessionName", target.Session); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid session for target '%s'", target.Name)).
					WithDetail("target", target.Name)
			}
		}
	}
	return nil
}

func (c *Config) validateNotify() error {
	for i, ch := range c.Notify.Channels {
		field := fmt.Sprintf("notify.channels[%d]", i)
		if !channelTypes[ch.Type] {
			return invalid(field+".type", "must be one of log, shell, webhook, filebox", ch.Type)
		}
		switch ch.Type {
		case "shell":
			if ch.Command == "" {
				return invalid(field+".command", "is required for a shell channel", "")
			}
		case "webhook":
			if err := validateURL(field+".url", ch.URL); err != nil {
				return err
			}
		case "filebox":
			if ch.Dir == "" {
				return invalid(field+".dir", "is required for a filebox channel", "")
			}
			if err := validatePath(field+".dir", ch.Dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateFallbacks checks that every {Name} token is a plausible tmux key.
// Literal inputs are always acceptable, including the empty string.
func ValidateFallbacks(inputs []string) error {
	sb := command.NewSafeBuilder()
	for _, input := range inputs {
		if key, ok := tmux.KeyToken(input); ok {
			if err := sb.Validate("keyName", key); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "must be an http(s) URL", raw)
	}
	return nil
}

// validatePath validates that a path is appropriate for the current OS
func validatePath(fieldName, path string) error {
	if path == "" {
		return nil
	}

	if runtime.GOOS != "windows" && filepath.IsAbs(path) && strings.Contains(path, "\\") {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s contains Windows-style path on Unix system", fieldName)).
			WithDetail("path", path)
	}

	return nil
}

func invalid(field, reason string, value interface{}) *errors.VigilError {
	return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s %s", field, reason)).
		WithDetail("field", field).
		WithDetail("value", value)
}
