package config

import (
	"fmt"
	"time"

	"github.com/grovetools/vigil/pkg/models"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

//go:generate go run ../tools/schema-generator/

// Duration is a time.Duration written as a Go duration string ("3s", "1m30s").
type Duration time.Duration

// Std returns the standard library value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String renders the duration the way it is written in config.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// JSONSchema describes Duration as a duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 5s or 1m30s",
	}
}

// CaptureConfig controls pane sampling.
type CaptureConfig struct {
	Lines   int      `yaml:"lines,omitempty" toml:"lines,omitempty" jsonschema:"description=Number of trailing pane lines sampled per session (5-50),minimum=5,maximum=50,default=30"`
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"description=Upper bound for one capture (default 5s)"`
}

// SignaturesConfig controls the stall signature table.
type SignaturesConfig struct {
	// Custom signatures are evaluated before the built-in table.
	Custom []models.StallSignature `yaml:"custom,omitempty" toml:"custom,omitempty" jsonschema:"description=Additional stall signatures evaluated before the built-in ones"`
	// ReplaceDefaults drops the built-in table entirely.
	ReplaceDefaults bool `yaml:"replace_defaults,omitempty" toml:"replace_defaults,omitempty" jsonschema:"description=Use only the custom signatures"`
}

// RecoveryConfig controls the bounded inject-and-resample loop.
type RecoveryConfig struct {
	MaxAttempts    int      `yaml:"max_attempts,omitempty" toml:"max_attempts,omitempty" jsonschema:"description=Maximum injection attempts per stalled session (1-10),minimum=1,maximum=10,default=3"`
	SettleDelay    Duration `yaml:"settle_delay,omitempty" toml:"settle_delay,omitempty" jsonschema:"description=Wait between an injection and the re-sample (default 3s)"`
	AttemptTimeout Duration `yaml:"attempt_timeout,omitempty" toml:"attempt_timeout,omitempty" jsonschema:"description=Upper bound for a single injection or re-sample (default 10s)"`
	Fallbacks      []string `yaml:"fallbacks,omitempty" toml:"fallbacks,omitempty" jsonschema:"description=Inputs tried in order. {Name} sends a tmux key; anything else is typed and submitted with Enter"`
}

// VerifyConfig controls the ground-truth check.
type VerifyConfig struct {
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"description=Upper bound for the git inspection of one project (default 10s)"`
}

// ReportsConfig controls persisted reports.
type ReportsConfig struct {
	Dir     string `yaml:"dir,omitempty" toml:"dir,omitempty" jsonschema:"description=Directory receiving one JSON report per run"`
	History *bool  `yaml:"history,omitempty" toml:"history,omitempty" jsonschema:"description=Index each run in history.db (default true)"`
}

// HistoryEnabled reports whether runs are indexed.
func (r ReportsConfig) HistoryEnabled() bool {
	return r.History == nil || *r.History
}

// ChannelConfig is one escalation channel.
type ChannelConfig struct {
	Type    string            `yaml:"type" toml:"type" jsonschema:"required,enum=log,enum=shell,enum=webhook,enum=filebox,description=Channel kind"`
	Command string            `yaml:"command,omitempty" toml:"command,omitempty" jsonschema:"description=Executable run by a shell channel; the message is passed on stdin"`
	Args    []string          `yaml:"args,omitempty" toml:"args,omitempty" jsonschema:"description=Arguments for the shell channel command"`
	URL     string            `yaml:"url,omitempty" toml:"url,omitempty" jsonschema:"description=Endpoint receiving a JSON POST for a webhook channel"`
	Headers map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty" jsonschema:"description=Extra HTTP headers for a webhook channel"`
	Dir     string            `yaml:"dir,omitempty" toml:"dir,omitempty" jsonschema:"description=Inbox directory for a filebox channel"`
}

// NotifyConfig controls escalation delivery. Channels are tried in order
// until one succeeds.
type NotifyConfig struct {
	Timeout  Duration        `yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"description=Upper bound for delivering the escalation (default 15s)"`
	Channels []ChannelConfig `yaml:"channels,omitempty" toml:"channels,omitempty" jsonschema:"description=Ordered escalation channels; the first success stops delivery"`
}

// OracleConfig configures the optional external status check.
type OracleConfig struct {
	Command []string `yaml:"command,omitempty" toml:"command,omitempty" jsonschema:"description=Command that must exit 0 when the fleet is healthy"`
	URL     string   `yaml:"url,omitempty" toml:"url,omitempty" jsonschema:"description=URL that must answer 2xx when the fleet is healthy"`
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"description=Upper bound for the oracle check (default 10s)"`
}

// Enabled reports whether an oracle is configured.
func (o OracleConfig) Enabled() bool {
	return len(o.Command) > 0 || o.URL != ""
}

// Config is the top-level vigil.yml document.
type Config struct {
	Version    string                  `yaml:"version,omitempty" toml:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Registry   string                  `yaml:"registry,omitempty" toml:"registry,omitempty" jsonschema:"description=Path to the project registry file"`
	Targets    []models.TrackedProject `yaml:"targets,omitempty" toml:"targets,omitempty" jsonschema:"description=Inline tracked projects used when no registry file is set"`
	Only       []string                `yaml:"only,omitempty" toml:"only,omitempty" jsonschema:"description=Project name patterns to include; prefix with ! to exclude"`
	Workers    int                     `yaml:"workers,omitempty" toml:"workers,omitempty" jsonschema:"description=Maximum concurrent units of work (default 4),minimum=1,maximum=64"`
	Capture    CaptureConfig           `yaml:"capture,omitempty" toml:"capture,omitempty" jsonschema:"description=Pane sampling"`
	Signatures SignaturesConfig        `yaml:"signatures,omitempty" toml:"signatures,omitempty" jsonschema:"description=Stall signature table"`
	Recovery   RecoveryConfig          `yaml:"recovery,omitempty" toml:"recovery,omitempty" jsonschema:"description=Automated recovery"`
	Verify     VerifyConfig            `yaml:"verify,omitempty" toml:"verify,omitempty" jsonschema:"description=Ground-truth verification"`
	Reports    ReportsConfig           `yaml:"reports,omitempty" toml:"reports,omitempty" jsonschema:"description=Report persistence"`
	Notify     NotifyConfig            `yaml:"notify,omitempty" toml:"notify,omitempty" jsonschema:"description=Escalation delivery"`
	Oracle     OracleConfig            `yaml:"oracle,omitempty" toml:"oracle,omitempty" jsonschema:"description=Optional external status check run in full mode"`

	// Extensions captures all other top-level keys (e.g. logging).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded vigil.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
