package monitor

import (
	"context"
	"time"

	"github.com/grovetools/vigil/pkg/models"
)

// Verifier is the ground-truth check: it reads each project's repository
// instead of trusting what the session prints.
type Verifier struct {
	vcs     VersionControl
	timeout time.Duration
}

func NewVerifier(vcs VersionControl, timeout time.Duration) *Verifier {
	return &Verifier{vcs: vcs, timeout: timeout}
}

// Verify inspects one project. Failures, including a timeout, are reported
// in the returned activity's Error and affect no other project.
func (v *Verifier) Verify(ctx context.Context, project models.TrackedProject) models.GitActivity {
	activity, err := callWithTimeout(ctx, "git inspection of "+project.Name, v.timeout, func(ctx context.Context) (models.GitActivity, error) {
		return v.vcs.Inspect(ctx, project.Path), nil
	})
	if err != nil {
		activity = models.GitActivity{Error: describeErr(err)}
	}
	activity.Project = project.Name
	return activity
}
