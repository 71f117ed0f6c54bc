package registry

import (
	"strings"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/moby/patternmatcher"
)

// Filter keeps the projects whose names match patterns. A leading "!"
// excludes; when every pattern is an exclusion, everything else is kept.
// No patterns keeps everything. A filter that keeps nothing is an error so a
// typo cannot turn into a vacuously healthy run.
func Filter(projects []models.TrackedProject, patterns []string) ([]models.TrackedProject, error) {
	if len(patterns) == 0 {
		return projects, nil
	}

	onlyExclusions := true
	for _, p := range patterns {
		if !strings.HasPrefix(p, "!") {
			onlyExclusions = false
			break
		}
	}
	if onlyExclusions {
		patterns = append([]string{"*"}, patterns...)
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid target filter").
			WithDetail("patterns", patterns)
	}

	var kept []models.TrackedProject
	for _, project := range projects {
		matched, err := pm.MatchesOrParentMatches(project.Name)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid target filter").
				WithDetail("patterns", patterns)
		}
		if matched {
			kept = append(kept, project)
		}
	}

	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeConfigValidation, "target filter matched no tracked projects").
			WithDetail("patterns", patterns)
	}
	return kept, nil
}
