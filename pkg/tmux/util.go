package tmux

import (
	"regexp"
	"strings"
)

var sessionNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// SessionNameFor returns the tmux session a project runs in when the registry
// does not name one: the project name itself when tmux accepts it unchanged,
// otherwise its sanitized form. tmux rewrites '.' and ':' in session names and
// reads them as window/pane separators in targets, so both are sanitized.
func SessionNameFor(project string) string {
	if len(project) <= 128 && sessionNameRegex.MatchString(project) {
		return project
	}
	return SanitizeForTmuxSession(project)
}

// SanitizeForTmuxSession creates a valid tmux session name from a string.
// It replaces spaces and special characters with hyphens, converts to lowercase,
// and ensures the name is a reasonable length.
func SanitizeForTmuxSession(title string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, title)

	sanitized = strings.ToLower(sanitized)

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-_")

	if sanitized == "" {
		sanitized = "session"
	}

	if len(sanitized) > 50 {
		sanitized = strings.TrimRight(sanitized[:50], "-")
	}

	return sanitized
}
