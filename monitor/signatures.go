package monitor

import (
	"fmt"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
)

// DefaultSignatures returns the built-in stall table in priority order.
// Destructive confirmations come first so they are never answered blindly.
func DefaultSignatures() []models.StallSignature {
	return []models.StallSignature{
		{
			Label:    "destructive-confirmation",
			Pattern:  `(?i)type ['"]?[^'"\s]+['"]? to confirm|cannot be undone|permanently delete`,
			Regex:    true,
			Escalate: true,
		},
		{
			Label:   "trust-folder",
			Pattern: `(?i)do you trust the (files|authors|contents)`,
			Regex:   true,
			// The first menu entry is "Yes, proceed".
			Fallbacks: []string{"", "1", "{Escape}"},
		},
		{
			Label:     "approval-menu",
			Pattern:   `❯\s*1\.\s*Yes`,
			Regex:     true,
			Fallbacks: []string{"", "1", "{Escape}"},
		},
		{
			Label:   "approval-prompt",
			Pattern: `(?i)do you want to (proceed|continue|make this edit|create|run|allow)`,
			Regex:   true,
		},
		{
			Label:   "yes-no-prompt",
			Pattern: `(?i)(\(y/n\)|\[y/n\]|\(yes/no\)|\[yes/no\])\s*[:?]?\s*$`,
			Regex:   true,
		},
		{
			Label:     "press-enter",
			Pattern:   `(?i)press (enter|return) to (continue|proceed|confirm)`,
			Regex:     true,
			Fallbacks: []string{"", "{Escape}"},
		},
		{
			Label:    "rate-limited",
			Pattern:  `(?i)(usage limit reached|rate limit exceeded|limit will reset)`,
			Regex:    true,
			Escalate: true,
		},
	}
}

// CompileSignatures builds the effective table: custom signatures first,
// then the defaults unless replaceDefaults is set. Regex signatures are
// compiled once here; an invalid one is a configuration error.
func CompileSignatures(custom []models.StallSignature, replaceDefaults bool) ([]models.StallSignature, error) {
	table := make([]models.StallSignature, 0, len(custom)+8)
	table = append(table, custom...)
	if !replaceDefaults {
		table = append(table, DefaultSignatures()...)
	}

	seen := make(map[string]bool, len(table))
	out := table[:0]
	for _, sig := range table {
		if seen[sig.Label] {
			// A custom signature shadows the default with the same label.
			continue
		}
		seen[sig.Label] = true
		if err := sig.Compile(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid pattern for signature '%s'", sig.Label)).
				WithDetail("label", sig.Label)
		}
		out = append(out, sig)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeConfigValidation, "no stall signatures configured")
	}
	return out, nil
}
