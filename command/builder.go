package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 30 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

var (
	sessionNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	gitRefRegex      = regexp.MustCompile(`^[a-zA-Z0-9/_.-]+$`)
	keyNameRegex     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"sessionName": validateSessionName,
		"fileName":    validateFileName,
		"gitRef":      validateGitRef,
		"keyName":     validateKeyName,
	}
}

// validateSessionName ensures tmux targets cannot smuggle window/pane selectors
// or shell metacharacters.
func validateSessionName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if !sessionNameRegex.MatchString(name) {
		return fmt.Errorf("invalid session name: %s (letters, digits, '_' and '-' only)", name)
	}
	if len(name) > 128 {
		return fmt.Errorf("session name too long: %s (max 128 characters)", name)
	}
	return nil
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("file path cannot contain '..'")
	}

	if strings.ContainsAny(path, ";|&$`") {
		return fmt.Errorf("file path contains invalid characters")
	}

	return nil
}

// validateGitRef ensures git references are safe
func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git ref cannot be empty")
	}
	if !gitRefRegex.MatchString(ref) {
		return fmt.Errorf("invalid git ref: %s", ref)
	}
	return nil
}

// validateKeyName accepts tmux key names such as Enter, Escape or C-c.
func validateKeyName(key string) error {
	if !keyNameRegex.MatchString(key) {
		return fmt.Errorf("invalid key name: %q", key)
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	dir      string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation. The command's deadline is
// derived from ctx, so a cancelled run also stops the child process.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, sb.defaultTimeout)

	return &Command{
		parent:   ctx,
		ctx:      timeoutCtx,
		cancel:   cancel,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	c.cancel()
	c.ctx, c.cancel = context.WithTimeout(c.parent, timeout)
	c.timeout = timeout
	return c
}

// InDir sets the working directory of the command.
func (c *Command) InDir(dir string) *Command {
	c.dir = dir
	return c
}

// Timeout returns the effective timeout.
func (c *Command) Timeout() time.Duration {
	return c.timeout
}

// String renders the command line for logs and error messages.
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd. Callers that use Exec directly own
// calling Release once the process has finished.
func (c *Command) Exec() *exec.Cmd {
	cmd := c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	return cmd
}

// Release frees the command's timeout context.
func (c *Command) Release() {
	c.cancel()
}

// Output runs the command and returns its stdout.
func (c *Command) Output() ([]byte, error) {
	defer c.cancel()
	out, err := c.Exec().Output()
	return out, c.wrapDeadline(err)
}

// CombinedOutput runs the command and returns stdout and stderr together.
func (c *Command) CombinedOutput() ([]byte, error) {
	defer c.cancel()
	out, err := c.Exec().CombinedOutput()
	return out, c.wrapDeadline(err)
}

// Run runs the command, discarding output.
func (c *Command) Run() error {
	defer c.cancel()
	return c.wrapDeadline(c.Exec().Run())
}

// wrapDeadline makes a killed-by-timeout process recognisable with errors.Is.
func (c *Command) wrapDeadline(err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := c.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w (%v)", c.name, ctxErr, err)
	}
	return err
}
