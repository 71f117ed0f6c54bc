// Package report persists monitoring reports. Each run writes one new JSON
// file; existing files are never rewritten.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	filePrefix  = "health-"
	fileSuffix  = ".json"
	nameLayout  = "20060102T150405.000Z"
	lockName    = ".lock"
	historyName = "history.db"
)

// Store writes reports into a directory under an exclusive file lock and
// optionally indexes them in history.db.
type Store struct {
	dir         string
	history     bool
	lockTimeout time.Duration
	sync        func(*os.File) error
	logger      *logrus.Entry
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, history bool) *Store {
	return &Store{
		dir:         dir,
		history:     history,
		lockTimeout: 10 * time.Second,
		sync:        (*os.File).Sync,
		logger:      logging.NewLogger("report"),
	}
}

// FromConfig builds the store described by the reports section.
func FromConfig(cfg config.ReportsConfig) *Store {
	return NewStore(cfg.Dir, cfg.HistoryEnabled())
}

func (s *Store) Dir() string { return s.dir }

// FileName is the name a report is persisted under:
// health-<UTC yyyymmddTHHMMSS.mmmZ>-<first 8 of run id>.json.
func FileName(report *models.MonitoringReport) string {
	runID := report.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("%s%s-%s%s", filePrefix, report.Timestamp.UTC().Format(nameLayout), runID, fileSuffix)
}

// Save writes report to a new file and returns its path. The file is
// created exclusively; a name collision is an error, never an overwrite.
// Failing to index the run is logged and does not fail the save.
func (s *Store) Save(ctx context.Context, report *models.MonitoringReport) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.ReportPersist(s.dir, err)
	}

	lock := flock.New(filepath.Join(s.dir, lockName))
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil || !locked {
		if err == nil {
			err = fmt.Errorf("lock held by another process")
		}
		return "", errors.ReportPersist(s.dir, fmt.Errorf("acquiring report lock: %w", err))
	}
	defer func() { _ = lock.Unlock() }()

	path := filepath.Join(s.dir, FileName(report))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to encode report")
	}

	if err := s.writeNew(path, append(data, '\n')); err != nil {
		return "", errors.ReportPersist(path, err)
	}

	if s.history {
		if err := s.index(ctx, report, path); err != nil {
			s.logger.WithError(err).WithField("run_id", report.RunID).Warn("Failed to index run in history")
		}
	}

	return path, nil
}

// writeNew creates path exclusively and fills it. A partially written file
// is removed so listings never see a truncated report.
func (s *Store) writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if err == nil {
		err = s.sync(f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (s *Store) index(ctx context.Context, report *models.MonitoringReport, path string) error {
	h, err := OpenHistory(ctx, filepath.Join(s.dir, historyName))
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Record(ctx, recordFor(report, path))
}

func recordFor(report *models.MonitoringReport, path string) models.RunRecord {
	return models.RunRecord{
		RunID:     report.RunID,
		Mode:      report.Mode,
		Timestamp: report.Timestamp,
		Health:    report.Summary.OverallHealth,
		Path:      path,
		Summary:   models.JSONField[models.Summary]{Data: report.Summary},
	}
}

// List returns the paths of every persisted report, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	// The timestamp leads the name, so lexical order is chronological.
	sort.Strings(paths)
	return paths, nil
}

// Load reads one report file.
func (s *Store) Load(path string) (*models.MonitoringReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeReportNotFound, fmt.Sprintf("report not found: %s", path)).
				WithDetail("path", path)
		}
		return nil, err
	}
	var report models.MonitoringReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to decode report").
			WithDetail("path", path)
	}
	return &report, nil
}

// Find resolves "latest" or a run ID prefix to a report and its path.
func (s *Store) Find(ctx context.Context, ref string) (*models.MonitoringReport, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "a run id or 'latest' is required")
	}

	paths, err := s.List()
	if err != nil {
		return nil, "", err
	}
	notFound := errors.New(errors.ErrCodeReportNotFound, fmt.Sprintf("no report matches '%s'", ref)).
		WithDetail("dir", s.dir)
	if len(paths) == 0 {
		return nil, "", notFound
	}

	if ref == "latest" {
		path := paths[len(paths)-1]
		report, err := s.Load(path)
		return report, path, err
	}

	short := ref
	if len(short) > 8 {
		short = short[:8]
	}
	var matches []string
	for i := len(paths) - 1; i >= 0; i-- {
		if strings.HasPrefix(runIDOf(paths[i]), short) {
			matches = append(matches, paths[i])
		}
	}

	var found *models.MonitoringReport
	var foundPath string
	for _, path := range matches {
		report, err := s.Load(path)
		if err != nil {
			return nil, "", err
		}
		if !strings.HasPrefix(report.RunID, ref) {
			continue
		}
		if found != nil {
			return nil, "", errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("run id prefix '%s' is ambiguous", ref))
		}
		found, foundPath = report, path
	}
	if found == nil {
		return nil, "", notFound
	}
	return found, foundPath, nil
}

// runIDOf returns the run ID fragment of a report file name.
func runIDOf(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), fileSuffix)
	skip := len(filePrefix) + len(nameLayout) + 1
	if len(base) <= skip {
		return ""
	}
	return base[skip:]
}

// Runs lists persisted runs, newest first. It reads history.db when history
// is enabled and falls back to the report files otherwise.
func (s *Store) Runs(ctx context.Context, filter models.HistoryFilter) (models.Page[models.RunRecord], error) {
	if s.history {
		if _, err := os.Stat(filepath.Join(s.dir, historyName)); err == nil {
			h, err := OpenHistory(ctx, filepath.Join(s.dir, historyName))
			if err != nil {
				return models.Page[models.RunRecord]{}, err
			}
			defer h.Close()
			return h.Query(ctx, filter)
		}
	}
	return s.scanRuns(filter)
}

func (s *Store) scanRuns(filter models.HistoryFilter) (models.Page[models.RunRecord], error) {
	if err := filter.Validate(); err != nil {
		return models.Page[models.RunRecord]{}, err
	}
	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultHistoryLim
	}

	paths, err := s.List()
	if err != nil {
		return models.Page[models.RunRecord]{}, err
	}

	var all []models.RunRecord
	for i := len(paths) - 1; i >= 0; i-- {
		report, err := s.Load(paths[i])
		if err != nil {
			s.logger.WithError(err).WithField("path", paths[i]).Warn("Skipping unreadable report")
			continue
		}
		rec := recordFor(report, paths[i])
		if filter.Since != nil && rec.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && rec.Timestamp.After(*filter.Until) {
			continue
		}
		if filter.Health != "" && rec.Health != filter.Health {
			continue
		}
		if filter.Mode != "" && rec.Mode != filter.Mode {
			continue
		}
		all = append(all, rec)
	}

	page := models.Page[models.RunRecord]{Items: []models.RunRecord{}, Total: len(all), Limit: limit, Offset: filter.Offset}
	if filter.Offset < len(all) {
		end := min(filter.Offset+limit, len(all))
		page.Items = append(page.Items, all[filter.Offset:end]...)
	}
	page.HasNext = filter.Offset+len(page.Items) < page.Total
	return page, nil
}
