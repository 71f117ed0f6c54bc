package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/grovetools/vigil/pkg/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	health TEXT NOT NULL CHECK(health IN ('excellent','needs-attention')),
	path TEXT NOT NULL,
	summary BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
`

// History indexes persisted reports so they can be listed without reading
// every JSON file.
type History struct {
	db *sql.DB
}

// OpenHistory opens (and creates) the index at path.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record indexes one run. Recording the same run twice is an error.
func (h *History) Record(ctx context.Context, rec models.RunRecord) error {
	_, err := h.db.ExecContext(ctx, `
INSERT INTO runs(run_id, mode, timestamp, health, path, summary)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.RunID, string(rec.Mode), ts(rec.Timestamp), string(rec.Health), rec.Path, rec.Summary)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.RunID, err)
	}
	return nil
}

// Query returns one page of runs, newest first.
func (h *History) Query(ctx context.Context, filter models.HistoryFilter) (models.Page[models.RunRecord], error) {
	if err := filter.Validate(); err != nil {
		return models.Page[models.RunRecord]{}, err
	}
	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultHistoryLim
	}

	var where []string
	var args []any
	if filter.Since != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, ts(*filter.Since))
	}
	if filter.Until != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, ts(*filter.Until))
	}
	if filter.Health != "" {
		where = append(where, "health = ?")
		args = append(args, string(filter.Health))
	}
	if filter.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, string(filter.Mode))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := models.Page[models.RunRecord]{Items: []models.RunRecord{}, Limit: limit, Offset: filter.Offset}
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+clause, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count runs: %w", err)
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT run_id, mode, timestamp, health, path, summary FROM runs"+clause+" ORDER BY timestamp DESC, run_id LIMIT ? OFFSET ?",
		append(args, limit, filter.Offset)...)
	if err != nil {
		return page, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("iterate runs: %w", err)
	}
	page.HasNext = filter.Offset+len(page.Items) < page.Total
	return page, nil
}

// Find returns the run whose ID starts with prefix. An ambiguous prefix is
// an error.
func (h *History) Find(ctx context.Context, prefix string) (models.RunRecord, bool, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT run_id, mode, timestamp, health, path, summary FROM runs WHERE run_id LIKE ? ESCAPE '\\' ORDER BY timestamp DESC LIMIT 2",
		escapeLike(prefix)+"%")
	if err != nil {
		return models.RunRecord{}, false, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var found []models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return models.RunRecord{}, false, err
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return models.RunRecord{}, false, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(found) {
	case 0:
		return models.RunRecord{}, false, nil
	case 1:
		return found[0], true, nil
	}
	return models.RunRecord{}, false, fmt.Errorf("run id prefix %q is ambiguous", prefix)
}

func scanRun(rows *sql.Rows) (models.RunRecord, error) {
	var (
		rec       models.RunRecord
		mode      string
		health    string
		timestamp string
	)
	if err := rows.Scan(&rec.RunID, &mode, &timestamp, &health, &rec.Path, &rec.Summary); err != nil {
		return rec, fmt.Errorf("scan run: %w", err)
	}
	parsed, err := time.Parse(tsLayout, timestamp)
	if err != nil {
		return rec, fmt.Errorf("parse timestamp of run %s: %w", rec.RunID, err)
	}
	rec.Mode = models.RunMode(mode)
	rec.Health = models.Health(health)
	rec.Timestamp = parsed
	return rec, nil
}

// tsLayout has fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
