package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Constants for validation limits
const (
	MaxHistoryLimit   = 1000
	DefaultHistoryLim = 20
)

// JSONField is a generic type for JSON database fields
type JSONField[T any] struct {
	Data T
}

func (j JSONField[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return b, nil
}

func (j *JSONField[T]) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONField", value)
	}

	if err := json.Unmarshal(b, &j.Data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// RunRecord is one row of the run history index.
type RunRecord struct {
	RunID     string             `json:"run_id" db:"run_id"`
	Mode      RunMode            `json:"mode" db:"mode"`
	Timestamp time.Time          `json:"timestamp" db:"timestamp"`
	Health    Health             `json:"health" db:"health"`
	Path      string             `json:"path" db:"path"`
	Summary   JSONField[Summary] `json:"summary" db:"summary"`
}

// Page represents paginated results
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasNext bool `json:"has_next"`
}

// HistoryFilter narrows a history query.
type HistoryFilter struct {
	Since  *time.Time `json:"since,omitempty"`
	Until  *time.Time `json:"until,omitempty"`
	Health Health     `json:"health,omitempty"`
	Mode   RunMode    `json:"mode,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// Validate validates the filter constraints
func (f *HistoryFilter) Validate() error {
	if f.Limit > MaxHistoryLimit {
		return fmt.Errorf("limit too large: %d, maximum allowed: %d", f.Limit, MaxHistoryLimit)
	}

	if f.Limit < 0 {
		return errors.New("limit cannot be negative")
	}

	if f.Offset < 0 {
		return errors.New("offset cannot be negative")
	}

	if f.Since != nil && f.Until != nil && f.Since.After(*f.Until) {
		return errors.New("since cannot be after until")
	}

	if f.Health != "" && f.Health != HealthExcellent && f.Health != HealthNeedsAttention {
		return fmt.Errorf("unknown health %q", f.Health)
	}

	if f.Mode != "" {
		if _, err := ParseRunMode(string(f.Mode)); err != nil {
			return err
		}
	}

	return nil
}

// ParseRunMode accepts the canonical mode names. An empty string selects full.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeQuick:
		return ModeQuick, nil
	case ModeVerifyOnly:
		return ModeVerifyOnly, nil
	case ModeRecoveryOnly:
		return ModeRecoveryOnly, nil
	}
	return "", fmt.Errorf("unknown mode %q (want one of: %s)", s, strings.Join(RunModeNames(), ", "))
}

// RunModeNames lists every mode in display order.
func RunModeNames() []string {
	return []string{string(ModeFull), string(ModeQuick), string(ModeVerifyOnly), string(ModeRecoveryOnly)}
}
