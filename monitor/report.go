package monitor

import (
	"time"

	"github.com/grovetools/vigil/pkg/models"
)

// Process exit statuses. A count is never encoded in the exit status.
const (
	ExitExcellent      = 0
	ExitNeedsAttention = 1
	ExitConfigError    = 2
)

// AggregateInput is everything a run produced, indexed like Projects. A nil
// slot means the phase did not run for that project.
type AggregateInput struct {
	RunID           string
	Mode            models.RunMode
	Started         time.Time
	Finished        time.Time
	Projects        []models.TrackedProject
	Classifications []*models.ClassificationResult
	Activities      []*models.GitActivity
	Recoveries      map[string]*models.RecoveryResult // by project name; nil when recovery did not run
	Escalation      *models.EscalationEvent
	Oracle          *models.OracleResult
	Verified        bool
}

// Aggregate merges unit results into the run's report. It runs once, after
// every unit has finished.
func Aggregate(in AggregateInput) *models.MonitoringReport {
	report := &models.MonitoringReport{
		RunID:            in.RunID,
		Mode:             in.Mode,
		Timestamp:        in.Started.UTC(),
		DurationMs:       in.Finished.Sub(in.Started).Milliseconds(),
		GitActivity:      make(map[string]models.GitActivity),
		Classifications:  []models.ClassificationResult{},
		RecoveryAttempts: []models.RecoveryAttempt{},
		Escalation:       in.Escalation,
		Oracle:           in.Oracle,
		Projects:         make(map[string]models.ProjectStatus, len(in.Projects)),
		Verified:         in.Verified,
	}
	summary := &report.Summary
	summary.ProjectsChecked = len(in.Projects)

	for i, project := range in.Projects {
		status := models.ProjectStatus{
			Session:        project.SessionID(),
			GitCheck:       models.CheckSkipped,
			Classification: models.CheckSkipped,
			Recovery:       models.CheckSkipped,
		}

		if i < len(in.Activities) && in.Activities[i] != nil {
			activity := *in.Activities[i]
			report.GitActivity[project.Name] = activity
			status.GitCheck = models.CheckOK
			if activity.Error != "" {
				status.GitCheck = models.CheckError
				summary.GitErrorCount++
			}
		}

		if i < len(in.Classifications) && in.Classifications[i] != nil {
			final := *in.Classifications[i]
			initial := final.State

			if rec, ok := in.Recoveries[project.Name]; ok && rec != nil {
				report.Recoveries = append(report.Recoveries, *rec)
				report.RecoveryAttempts = append(report.RecoveryAttempts, rec.Attempts...)
				final = rec.Final
				status.Recovery = string(rec.Outcome)
				switch rec.Outcome {
				case models.OutcomeRecovered:
					summary.RecoveredCount++
				case models.OutcomeStillStuck:
					summary.StillStuckCount++
				}
			} else if in.Recoveries != nil {
				switch initial {
				case models.StateActive:
					status.Recovery = models.RecoveryNotNeeded
				case models.StateUnknown:
					status.Recovery = models.RecoveryUnknown
				}
			}

			if initial == models.StateStalled {
				summary.StalledCount++
			}
			if final.State == models.StateUnknown {
				summary.UnknownCount++
			}
			status.Classification = string(final.State)
			report.Classifications = append(report.Classifications, final)
		}

		report.Projects[project.Name] = status
	}

	summary.OverallHealth = health(report)
	return report
}

// health is excellent only when no session ends stalled or still stuck, no
// repository check failed, the oracle (when consulted) passed, and ground
// truth was actually inspected in this run.
func health(report *models.MonitoringReport) models.Health {
	if !report.Verified {
		return models.HealthNeedsAttention
	}
	if report.Summary.GitErrorCount > 0 || report.Summary.StillStuckCount > 0 {
		return models.HealthNeedsAttention
	}
	for _, c := range report.Classifications {
		if c.State == models.StateStalled {
			return models.HealthNeedsAttention
		}
	}
	if report.Oracle != nil && report.Oracle.Checked && !report.Oracle.OK {
		return models.HealthNeedsAttention
	}
	return models.HealthExcellent
}

// ExitCode derives the process exit status. recovery-only runs never verify,
// so they succeed when no session is left stalled or stuck.
func ExitCode(report *models.MonitoringReport) int {
	if report.Mode == models.ModeRecoveryOnly {
		if report.Summary.StillStuckCount > 0 {
			return ExitNeedsAttention
		}
		for _, c := range report.Classifications {
			if c.State == models.StateStalled {
				return ExitNeedsAttention
			}
		}
		return ExitExcellent
	}
	if report.Summary.OverallHealth == models.HealthExcellent {
		return ExitExcellent
	}
	return ExitNeedsAttention
}
