// Package git inspects project repositories for ground-truth activity.
// Every inspection is read-only.
package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/grovetools/vigil/command"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/sirupsen/logrus"
)

// Inspector runs the three git inspections behind a project's GitActivity.
type Inspector struct {
	builder *command.SafeBuilder
	logger  *logrus.Entry
}

// NewInspector creates an inspector using the real git binary.
func NewInspector() *Inspector {
	return NewInspectorWithBuilder(command.NewSafeBuilder())
}

// NewInspectorWithBuilder creates an inspector whose git processes come from sb.
func NewInspectorWithBuilder(sb *command.SafeBuilder) *Inspector {
	return &Inspector{
		builder: sb,
		logger:  logging.NewLogger("git"),
	}
}

// Inspect reports the last change, pending change count and branch of the
// repository at path. It never returns an error: failures are described in
// GitActivity.Error and the fields that could be read are still filled in.
// A repository without commits is not a failure.
func (i *Inspector) Inspect(ctx context.Context, path string) models.GitActivity {
	activity := models.GitActivity{}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			activity.Error = fmt.Sprintf("path does not exist: %s", path)
		} else {
			activity.Error = fmt.Sprintf("cannot access %s: %v", path, err)
		}
		return activity
	}
	if !info.IsDir() {
		activity.Error = fmt.Sprintf("not a directory: %s", path)
		return activity
	}

	var problems []string

	// Last change. An empty repository has none and that is fine.
	out, errOut, err := i.git(ctx, path, "log", "-1", "--format=%h%x00%an%x00%cr")
	switch {
	case err == nil:
		fields := strings.SplitN(strings.TrimSpace(out), "\x00", 3)
		if len(fields) == 3 {
			activity.LastChangeID = fields[0]
			activity.LastAuthor = fields[1]
			activity.LastRelativeTime = fields[2]
		}
	case strings.Contains(errOut, "not a git repository"):
		activity.Error = fmt.Sprintf("not a git repository: %s", path)
		return activity
	case noCommits(errOut):
	default:
		problems = append(problems, "log: "+describe(ctx, err, errOut))
	}

	// Pending changes.
	var headFromStatus string
	out, errOut, err = i.git(ctx, path, "status", "--porcelain=v2", "--branch")
	if err == nil {
		status := ParseStatus(out)
		pending := status.Pending
		activity.PendingChangeCount = &pending
		if status.Upstream != "" {
			ahead := status.Ahead
			activity.UnpushedCount = &ahead
		}
		headFromStatus = status.Branch
	} else {
		problems = append(problems, "status: "+describe(ctx, err, errOut))
	}

	// Branch. rev-parse cannot resolve HEAD before the first commit; status
	// still knows the unborn branch name.
	out, errOut, err = i.git(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	switch {
	case err == nil:
		activity.Branch = strings.TrimSpace(out)
	case headFromStatus != "" && noCommits(errOut):
		activity.Branch = headFromStatus
	default:
		problems = append(problems, "branch: "+describe(ctx, err, errOut))
	}

	if len(problems) > 0 {
		activity.Error = strings.Join(problems, "; ")
		i.logger.WithFields(logrus.Fields{
			"path":  path,
			"error": activity.Error,
		}).Debug("Git inspection incomplete")
	}

	return activity
}

// git runs one git command in dir and returns stdout and stderr separately.
func (i *Inspector) git(ctx context.Context, dir string, args ...string) (string, string, error) {
	cmd, err := i.builder.Build(ctx, "git", args...)
	if err != nil {
		return "", "", fmt.Errorf("failed to build command: %w", err)
	}
	defer cmd.Release()

	var stdout, stderr bytes.Buffer
	execCmd := cmd.InDir(dir).Exec()
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr
	// Never prompt, never take locks a running agent might need.
	execCmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_OPTIONAL_LOCKS=0")

	err = execCmd.Run()
	return stdout.String(), stderr.String(), err
}

func noCommits(stderr string) bool {
	return strings.Contains(stderr, "does not have any commits") ||
		strings.Contains(stderr, "ambiguous argument 'HEAD'") ||
		strings.Contains(stderr, "unknown revision")
}

// describe turns a failed git call into a one-line reason.
func describe(ctx context.Context, err error, stderr string) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return "timed out"
		}
		return "cancelled"
	}
	if line := firstLine(stderr); line != "" {
		return line
	}
	return err.Error()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "fatal: ")
}
