package errors

import (
	"fmt"
	"os/exec"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *VigilError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *VigilError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RegistryInvalid creates a validation error for a malformed registry file.
func RegistryInvalid(path string, err error) *VigilError {
	return Wrap(err, ErrCodeConfigValidation, "registry failed validation").
		WithDetail("path", path)
}

// SessionNotFound creates a session not found error
func SessionNotFound(session string) *VigilError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", session)).
		WithDetail("session", session)
}

// Timeout creates a timeout error for an external call
func Timeout(operation string, timeout time.Duration) *VigilError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s did not finish within %s", operation, timeout)).
		WithDetail("operation", operation).
		WithDetail("timeout", timeout.String())
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *VigilError {
	vErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	if exitErr, ok := err.(*exec.ExitError); ok {
		vErr = vErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return vErr
}

// NotifyFailed creates a notification dispatch error
func NotifyFailed(channel string, err error) *VigilError {
	return Wrap(err, ErrCodeNotifyFailed, fmt.Sprintf("notification via %s failed", channel)).
		WithDetail("channel", channel)
}

// ReportPersist creates a report persistence error
func ReportPersist(path string, err error) *VigilError {
	return Wrap(err, ErrCodeReportPersist, "failed to persist report").
		WithDetail("path", path)
}
