package monitor

import (
	"testing"
	"time"

	"github.com/grovetools/vigil/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestHealthTruthTable(t *testing.T) {
	stalled := models.ClassificationResult{State: models.StateStalled}
	active := models.ClassificationResult{State: models.StateActive}
	unknown := models.ClassificationResult{State: models.StateUnknown}

	tests := []struct {
		name   string
		report models.MonitoringReport
		want   models.Health
	}{
		{
			name:   "verified and quiet",
			report: models.MonitoringReport{Verified: true, Classifications: []models.ClassificationResult{active}},
			want:   models.HealthExcellent,
		},
		{
			name:   "unknown sessions do not lower health",
			report: models.MonitoringReport{Verified: true, Classifications: []models.ClassificationResult{unknown}},
			want:   models.HealthExcellent,
		},
		{
			name:   "never verified",
			report: models.MonitoringReport{Classifications: []models.ClassificationResult{active}},
			want:   models.HealthNeedsAttention,
		},
		{
			name:   "git error",
			report: models.MonitoringReport{Verified: true, Summary: models.Summary{GitErrorCount: 1}},
			want:   models.HealthNeedsAttention,
		},
		{
			name:   "still stuck",
			report: models.MonitoringReport{Verified: true, Summary: models.Summary{StillStuckCount: 1}},
			want:   models.HealthNeedsAttention,
		},
		{
			name:   "left stalled",
			report: models.MonitoringReport{Verified: true, Classifications: []models.ClassificationResult{active, stalled}},
			want:   models.HealthNeedsAttention,
		},
		{
			name:   "oracle failed",
			report: models.MonitoringReport{Verified: true, Oracle: &models.OracleResult{Checked: true}},
			want:   models.HealthNeedsAttention,
		},
		{
			name:   "oracle passed",
			report: models.MonitoringReport{Verified: true, Oracle: &models.OracleResult{Checked: true, OK: true}},
			want:   models.HealthExcellent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, health(&tt.report))
		})
	}
}

func TestAggregate(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	projects := []models.TrackedProject{
		{Name: "api", Session: "api"},
		{Name: "web", Session: "web-dev"},
		{Name: "docs"},
	}
	stalled := models.ClassificationResult{SessionID: "web-dev", Project: "web", State: models.StateStalled}
	recovered := models.ClassificationResult{SessionID: "web-dev", Project: "web", State: models.StateActive}
	pending := 2

	report := Aggregate(AggregateInput{
		RunID:    "run-1",
		Mode:     models.ModeFull,
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Projects: projects,
		Classifications: []*models.ClassificationResult{
			{SessionID: "api", Project: "api", State: models.StateActive},
			&stalled,
			{SessionID: "docs", Project: "docs", State: models.StateUnknown, Error: "session not found"},
		},
		Activities: []*models.GitActivity{
			{Project: "api", PendingChangeCount: &pending},
			{Project: "web", Error: "not a git repository"},
			{Project: "docs"},
		},
		Recoveries: map[string]*models.RecoveryResult{
			"web": {
				SessionID: "web-dev",
				Project:   "web",
				Outcome:   models.OutcomeRecovered,
				Attempts:  []models.RecoveryAttempt{{SessionID: "web-dev", InjectedInput: "y", ResultState: models.StateActive}},
				Final:     recovered,
			},
		},
		Verified: true,
	})

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, time.UTC, report.Timestamp.Location())
	assert.Equal(t, int64(1500), report.DurationMs)

	assert.Equal(t, models.Summary{
		ProjectsChecked: 3,
		StalledCount:    1,
		RecoveredCount:  1,
		UnknownCount:    1,
		GitErrorCount:   1,
		OverallHealth:   models.HealthNeedsAttention,
	}, report.Summary)

	assert.Equal(t, models.ProjectStatus{Session: "api", GitCheck: "ok", Classification: "active", Recovery: "not-needed"}, report.Projects["api"])
	assert.Equal(t, models.ProjectStatus{Session: "web-dev", GitCheck: "error", Classification: "active", Recovery: "recovered"}, report.Projects["web"])
	assert.Equal(t, models.ProjectStatus{Session: "docs", GitCheck: "ok", Classification: "unknown", Recovery: "unknown"}, report.Projects["docs"])

	assert.Len(t, report.RecoveryAttempts, 1)
	assert.Equal(t, models.StateActive, report.Classifications[1].State, "final classification replaces the initial one")
}

func TestAggregateSkippedPhases(t *testing.T) {
	report := Aggregate(AggregateInput{
		Mode:     models.ModeVerifyOnly,
		Projects: []models.TrackedProject{{Name: "api"}},
		Activities: []*models.GitActivity{
			{Project: "api"},
		},
		Verified: true,
	})

	assert.Empty(t, report.Classifications)
	assert.NotNil(t, report.RecoveryAttempts, "empty lists serialize as []")
	assert.Equal(t, models.ProjectStatus{Session: "api", GitCheck: "ok", Classification: "skipped", Recovery: "skipped"}, report.Projects["api"])
	assert.Equal(t, models.HealthExcellent, report.Summary.OverallHealth)
}

func TestExitCode(t *testing.T) {
	excellent := &models.MonitoringReport{Mode: models.ModeFull, Summary: models.Summary{OverallHealth: models.HealthExcellent}}
	attention := &models.MonitoringReport{Mode: models.ModeQuick, Summary: models.Summary{OverallHealth: models.HealthNeedsAttention, StalledCount: 7}}

	assert.Equal(t, ExitExcellent, ExitCode(excellent))
	assert.Equal(t, ExitNeedsAttention, ExitCode(attention), "counts never leak into the exit status")

	recoveryOnly := &models.MonitoringReport{
		Mode:            models.ModeRecoveryOnly,
		Classifications: []models.ClassificationResult{{State: models.StateActive}, {State: models.StateUnknown}},
		Summary:         models.Summary{OverallHealth: models.HealthNeedsAttention},
	}
	assert.Equal(t, ExitExcellent, ExitCode(recoveryOnly))

	recoveryOnly.Summary.StillStuckCount = 1
	assert.Equal(t, ExitNeedsAttention, ExitCode(recoveryOnly))

	result := &Result{Report: excellent, PersistErr: assert.AnError}
	assert.Equal(t, ExitNeedsAttention, result.ExitCode())
}

func TestPhasesFor(t *testing.T) {
	full, err := PhasesFor(models.ModeFull)
	assert.NoError(t, err)
	assert.Equal(t, Phases{Classify: true, Verify: true, Recover: true, Oracle: true, Persist: true}, full)

	recovery, err := PhasesFor(models.ModeRecoveryOnly)
	assert.NoError(t, err)
	assert.False(t, recovery.Verify)
	assert.False(t, recovery.Persist)

	_, err = PhasesFor("turbo")
	assert.Error(t, err)
}
