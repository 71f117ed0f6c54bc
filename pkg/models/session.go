package models

import (
	"regexp"
	"strings"
	"time"
)

// TrackedProject is one registry entry: a named project directory with the
// tmux session its agent runs in.
type TrackedProject struct {
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path" yaml:"path"`
	Session string `json:"session,omitempty" yaml:"session,omitempty"`
}

// SessionID returns the tmux session the project's agent is attached to.
func (p TrackedProject) SessionID() string {
	if p.Session != "" {
		return p.Session
	}
	return p.Name
}

// PaneSnapshot is a bounded capture of a session's visible output.
// Snapshots are never persisted.
type PaneSnapshot struct {
	SessionID  string    `json:"session_id"`
	CapturedAt time.Time `json:"captured_at"`
	Lines      []string  `json:"lines"`
}

// Empty reports whether the snapshot holds no visible text.
func (s *PaneSnapshot) Empty() bool {
	if s == nil {
		return true
	}
	for _, line := range s.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// SessionState is the classifier's verdict for one session.
type SessionState string

const (
	StateStalled SessionState = "stalled"
	StateUnknown SessionState = "unknown"
	StateActive  SessionState = "active"
)

// StallSignature is a known text pattern meaning the session is blocked on
// input. Signatures are evaluated in list order and the first match wins.
type StallSignature struct {
	Label   string `json:"label" yaml:"label" toml:"label" jsonschema:"required,description=Short identifier reported when the signature matches"`
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern" jsonschema:"required,description=Literal substring or regular expression matched against each captured line"`
	Regex   bool   `json:"regex,omitempty" yaml:"regex,omitempty" toml:"regex,omitempty" jsonschema:"description=Treat pattern as a Go regular expression"`

	// Fallbacks replaces the global fallback inputs for sessions stalled on
	// this signature.
	Fallbacks []string `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty" toml:"fallbacks,omitempty" jsonschema:"description=Inputs injected for this signature instead of the global list"`

	// Escalate skips injection entirely and hands the session to escalation.
	Escalate bool `json:"escalate,omitempty" yaml:"escalate,omitempty" toml:"escalate,omitempty" jsonschema:"description=Never inject input for this signature; escalate immediately"`

	re *regexp.Regexp
}

// Compile prepares a regex signature. Literal signatures need no compilation.
func (s *StallSignature) Compile() error {
	if !s.Regex {
		s.re = nil
		return nil
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return err
	}
	s.re = re
	return nil
}

// Matches reports whether line contains the signature's pattern.
func (s *StallSignature) Matches(line string) bool {
	if s.Pattern == "" {
		return false
	}
	if s.Regex {
		re := s.re
		if re == nil {
			// Uncompiled regex signatures are compiled on the fly so that a
			// hand-built table still classifies identically.
			var err error
			if re, err = regexp.Compile(s.Pattern); err != nil {
				return false
			}
		}
		return re.MatchString(line)
	}
	return strings.Contains(line, s.Pattern)
}

// ClassificationResult is the detector's output for one session.
type ClassificationResult struct {
	SessionID        string          `json:"session_id"`
	Project          string          `json:"project,omitempty"`
	State            SessionState    `json:"state"`
	MatchedSignature *StallSignature `json:"matched_signature,omitempty"`
	Evidence         []string        `json:"evidence,omitempty"`

	// Error explains an unknown state (session missing, capture timed out).
	Error string `json:"error,omitempty"`
}
