// Package monitor is the session health engine: it samples agent sessions,
// classifies stalls, verifies progress against version control, recovers
// what it can, escalates the rest and aggregates one report per run.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/grovetools/vigil/pkg/profiling"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of a run. Registry, Sessions and VCS are
// required; the rest are optional.
type Deps struct {
	Registry Registry
	Sessions SessionIO
	VCS      VersionControl
	Notifier Notifier
	Oracle   StatusOracle
	Store    ReportStore
	Logger   *logrus.Entry
}

// Options tune a run. Zero values take the configuration defaults.
type Options struct {
	Workers        int
	CaptureLines   int
	CaptureTimeout time.Duration
	MaxAttempts    int
	SettleDelay    time.Duration
	AttemptTimeout time.Duration
	Fallbacks      []string
	VerifyTimeout  time.Duration
	NotifyTimeout  time.Duration
	OracleTimeout  time.Duration

	// Signatures is the effective stall table, already compiled.
	Signatures []models.StallSignature

	// Sleep waits out the settle delay. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now is the clock. Tests replace it.
	Now func() time.Time
}

// OptionsFromConfig maps a loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	signatures, err := CompileSignatures(cfg.Signatures.Custom, cfg.Signatures.ReplaceDefaults)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Workers:        cfg.Workers,
		CaptureLines:   cfg.Capture.Lines,
		CaptureTimeout: cfg.Capture.Timeout.Std(),
		MaxAttempts:    cfg.Recovery.MaxAttempts,
		SettleDelay:    cfg.Recovery.SettleDelay.Std(),
		AttemptTimeout: cfg.Recovery.AttemptTimeout.Std(),
		Fallbacks:      cfg.Recovery.Fallbacks,
		VerifyTimeout:  cfg.Verify.Timeout.Std(),
		NotifyTimeout:  cfg.Notify.Timeout.Std(),
		OracleTimeout:  cfg.Oracle.Timeout.Std(),
		Signatures:     signatures,
	}, nil
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = config.DefaultWorkers
	}
	if o.CaptureLines <= 0 {
		o.CaptureLines = config.DefaultCaptureLines
	}
	if o.CaptureTimeout <= 0 {
		o.CaptureTimeout = config.DefaultCaptureTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = config.DefaultMaxAttempts
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = config.DefaultSettleDelay
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = config.DefaultAttemptTimeout
	}
	if o.Fallbacks == nil {
		o.Fallbacks = append([]string(nil), config.DefaultFallbacks...)
	}
	if o.VerifyTimeout <= 0 {
		o.VerifyTimeout = config.DefaultVerifyTimeout
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = config.DefaultNotifyTimeout
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = config.DefaultOracleTimeout
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Result is what a run hands back to its caller.
type Result struct {
	Report *models.MonitoringReport
	// ReportPath is where the report was persisted; empty when the mode does
	// not persist or no store is configured.
	ReportPath string
	// PersistErr is set when persisting failed. The report is still valid.
	PersistErr error
}

// ExitCode is the process exit status for this result.
func (r *Result) ExitCode() int {
	code := ExitCode(r.Report)
	if r.PersistErr != nil && code == ExitExcellent {
		return ExitNeedsAttention
	}
	return code
}

// Monitor executes runs. Apart from the injection locks of sessions being
// recovered, it holds no state between runs.
type Monitor struct {
	deps      Deps
	opts      Options
	sampler   *Sampler
	verifier  *Verifier
	recoverer *Recoverer
	escalator *Escalator
	logger    *logrus.Entry
}

// New wires a monitor from its collaborators.
func New(deps Deps, opts Options) (*Monitor, error) {
	if deps.Registry == nil || deps.Sessions == nil || deps.VCS == nil {
		return nil, errors.New(errors.ErrCodeInternal, "monitor needs a registry, session IO and version control")
	}
	opts.setDefaults()
	if len(opts.Signatures) == 0 {
		signatures, err := CompileSignatures(nil, false)
		if err != nil {
			return nil, err
		}
		opts.Signatures = signatures
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewLogger("monitor")
	}

	sampler := NewSampler(deps.Sessions, opts.CaptureLines, opts.CaptureTimeout)
	sampler.now = opts.Now

	return &Monitor{
		deps:     deps,
		opts:     opts,
		sampler:  sampler,
		verifier: NewVerifier(deps.VCS, opts.VerifyTimeout),
		recoverer: &Recoverer{
			io:             deps.Sessions,
			sampler:        sampler,
			locks:          newSessionLocks(),
			signatures:     opts.Signatures,
			fallbacks:      opts.Fallbacks,
			maxAttempts:    opts.MaxAttempts,
			settleDelay:    opts.SettleDelay,
			attemptTimeout: opts.AttemptTimeout,
			sleep:          opts.Sleep,
			logger:         logger,
		},
		escalator: &Escalator{
			notifier: deps.Notifier,
			timeout:  opts.NotifyTimeout,
			now:      opts.Now,
			logger:   logger,
		},
		logger: logger,
	}, nil
}

// Run executes one batch run in the given mode. The only errors it returns
// are an unknown mode and registry failures (configuration errors); in both
// cases no unit has run and no report exists. Everything else is recorded in
// the report.
func (m *Monitor) Run(ctx context.Context, mode models.RunMode) (*Result, error) {
	phases, err := PhasesFor(mode)
	if err != nil {
		return nil, err
	}

	projects, err := m.deps.Registry.ListTargets(ctx)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to load tracked projects")
		}
		return nil, err
	}

	defer profiling.Start("run").Stop()

	runID := uuid.NewString()
	started := m.opts.Now()
	log := m.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"mode":   mode,
	})
	log.WithField("projects", len(projects)).Info("Run started")

	classifications := make([]*models.ClassificationResult, len(projects))
	activities := make([]*models.GitActivity, len(projects))

	// Sampling, classification and verification are independent units.
	// They never return errors so no sibling is ever cancelled.
	log.Debug("Sampling")
	g := new(errgroup.Group)
	g.SetLimit(m.opts.Workers)
	for i, project := range projects {
		if phases.Classify {
			g.Go(func() error {
				var result models.ClassificationResult
				if ctx.Err() != nil {
					result = unknownResult(project.SessionID(), "run cancelled")
					result.Project = project.Name
				} else {
					span := profiling.Start("sample")
					result = sampleAndClassify(ctx, m.sampler, m.opts.Signatures, project)
					span.Stop()
				}
				classifications[i] = &result
				return nil
			})
		}
		if phases.Verify {
			g.Go(func() error {
				var activity models.GitActivity
				if ctx.Err() != nil {
					activity = models.GitActivity{Project: project.Name, Error: "run cancelled"}
				} else {
					span := profiling.Start("verify")
					activity = m.verifier.Verify(ctx, project)
					span.Stop()
				}
				activities[i] = &activity
				return nil
			})
		}
	}
	_ = g.Wait()
	log.Debug("Classified and verified")

	var recoveries map[string]*models.RecoveryResult
	var escalation *models.EscalationEvent
	if phases.Recover {
		span := profiling.Start("recover")
		recoveries = m.recoverAll(ctx, log, projects, classifications)
		span.Stop()

		var stuck []models.RecoveryResult
		for _, project := range projects {
			if rec, ok := recoveries[project.Name]; ok && rec.Outcome == models.OutcomeStillStuck {
				stuck = append(stuck, *rec)
			}
		}
		if len(stuck) > 0 {
			log.WithField("sessions", len(stuck)).Debug("Escalating")
			span := profiling.Start("escalate")
			escalation = m.escalator.Escalate(context.WithoutCancel(ctx), runID, stuck)
			span.Stop()
			for _, rec := range stuck {
				recoveries[rec.Project].Escalated = escalation.Delivered
			}
		}
	}

	var oracle *models.OracleResult
	if phases.Oracle && m.deps.Oracle != nil {
		span := profiling.Start("oracle")
		oracle = m.checkOracle(ctx, log)
		span.Stop()
	}

	log.Debug("Aggregating")
	report := Aggregate(AggregateInput{
		RunID:           runID,
		Mode:            mode,
		Started:         started,
		Finished:        m.opts.Now(),
		Projects:        projects,
		Classifications: classifications,
		Activities:      activities,
		Recoveries:      recoveries,
		Escalation:      escalation,
		Oracle:          oracle,
		Verified:        phases.Verify && len(projects) > 0,
	})

	result := &Result{Report: report}
	if phases.Persist && m.deps.Store != nil {
		span := profiling.Start("persist")
		path, err := m.deps.Store.Save(context.WithoutCancel(ctx), report)
		span.Stop()
		if err != nil {
			result.PersistErr = err
			log.WithError(err).Error("Failed to persist report")
		} else {
			result.ReportPath = path
			log.WithField("path", path).Debug("Report persisted")
		}
	}

	log.WithFields(logrus.Fields{
		"health":      report.Summary.OverallHealth,
		"stalled":     report.Summary.StalledCount,
		"recovered":   report.Summary.RecoveredCount,
		"still_stuck": report.Summary.StillStuckCount,
		"git_errors":  report.Summary.GitErrorCount,
		"duration_ms": report.DurationMs,
	}).Info("Run finished")

	return result, nil
}

// recoverAll runs one recovery loop per stalled session, concurrently.
func (m *Monitor) recoverAll(ctx context.Context, log *logrus.Entry, projects []models.TrackedProject, classifications []*models.ClassificationResult) map[string]*models.RecoveryResult {
	results := make([]*models.RecoveryResult, len(projects))

	g := new(errgroup.Group)
	g.SetLimit(m.opts.Workers)
	for i := range projects {
		c := classifications[i]
		if c == nil || c.State != models.StateStalled {
			continue
		}
		g.Go(func() error {
			rec := m.recoverer.Recover(ctx, *c)
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	recoveries := make(map[string]*models.RecoveryResult)
	for i, rec := range results {
		if rec != nil {
			recoveries[projects[i].Name] = rec
		}
	}
	if len(recoveries) > 0 {
		log.WithField("sessions", len(recoveries)).Debug("Recovery finished")
	}
	return recoveries
}

func (m *Monitor) checkOracle(ctx context.Context, log *logrus.Entry) *models.OracleResult {
	result := &models.OracleResult{Checked: true}
	if ctx.Err() != nil {
		result.Error = "run cancelled"
		return result
	}
	_, err := callWithTimeout(ctx, "status oracle", m.opts.OracleTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.deps.Oracle.Check(ctx)
	})
	if err != nil {
		result.Error = describeErr(err)
		log.WithError(err).Warn("Status oracle reported a problem")
		return result
	}
	result.OK = true
	return result
}
