// Package registry resolves the tracked projects a run operates on.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/grovetools/vigil/pkg/tmux"
	"github.com/grovetools/vigil/schema"
	"github.com/grovetools/vigil/util/pathutil"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileRegistry reads tracked projects from a JSON or YAML registry file.
// The file is read on every ListTargets call; a run calls it once.
type FileRegistry struct {
	path   string
	only   []string
	logger *logrus.Entry
}

// NewFile returns a registry backed by path. only holds target filter
// patterns and may be empty.
func NewFile(path string, only []string) *FileRegistry {
	return &FileRegistry{
		path:   path,
		only:   only,
		logger: logging.NewLogger("registry"),
	}
}

// Path returns the registry file location.
func (r *FileRegistry) Path() string {
	return r.path
}

// ListTargets parses, validates and filters the registry. Every failure is a
// configuration error.
func (r *FileRegistry) ListTargets(ctx context.Context) ([]models.TrackedProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(r.path).WithDetail("kind", "registry")
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read registry").
			WithDetail("path", r.path)
	}

	projects, err := Parse(data, filepath.Dir(r.path))
	if err != nil {
		if vErr, ok := errors.As(err); ok {
			vErr.WithDetail("path", r.path)
		}
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"path":     r.path,
		"projects": len(projects),
	}).Debug("Loaded registry")

	return Filter(projects, r.only)
}

// Parse decodes a registry document, preserving entry order. Relative paths
// resolve against baseDir. Accepted shapes:
//
//	{"api": "~/src/api", "web": {"path": "../web", "session": "web-agent"}}
//	{"projects": [{"name": "api", "path": "~/src/api"}]}
//	[{"name": "api", "path": "~/src/api"}]
func Parse(data []byte, baseDir string) ([]models.TrackedProject, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse registry")
	}
	if len(root.Content) == 0 {
		return nil, errors.New(errors.ErrCodeConfigValidation, "registry is empty")
	}
	doc := root.Content[0]

	var raw interface{}
	if err := doc.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode registry")
	}
	validator, err := schema.NewRegistryValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create registry validator")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.RegistryInvalid("", err)
	}

	projects, err := decodeEntries(doc)
	if err != nil {
		return nil, errors.RegistryInvalid("", err)
	}
	if len(projects) == 0 {
		return nil, errors.New(errors.ErrCodeConfigValidation, "registry lists no projects")
	}

	return normalize(projects, baseDir)
}

func decodeEntries(doc *yaml.Node) ([]models.TrackedProject, error) {
	var projects []models.TrackedProject

	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&projects); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i].Value == "projects" {
				if err := doc.Content[i+1].Decode(&projects); err != nil {
					return nil, err
				}
				return projects, nil
			}
		}
		for i := 0; i+1 < len(doc.Content); i += 2 {
			name, value := doc.Content[i].Value, doc.Content[i+1]
			project := models.TrackedProject{Name: name}
			if value.Kind == yaml.ScalarNode {
				project.Path = value.Value
			} else {
				var entry struct {
					Path    string `yaml:"path"`
					Session string `yaml:"session"`
				}
				if err := value.Decode(&entry); err != nil {
					return nil, fmt.Errorf("entry %s: %w", name, err)
				}
				project.Path, project.Session = entry.Path, entry.Session
			}
			projects = append(projects, project)
		}
	default:
		return nil, fmt.Errorf("unexpected registry document at line %d", doc.Line)
	}

	return projects, nil
}

// normalize checks names, expands paths and assigns default sessions.
func normalize(projects []models.TrackedProject, baseDir string) ([]models.TrackedProject, error) {
	seenNames := make(map[string]bool, len(projects))
	seenSessions := make(map[string]string, len(projects))

	for i := range projects {
		p := &projects[i]
		if seenNames[p.Name] {
			return nil, errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("duplicate project name '%s'", p.Name)).
				WithDetail("project", p.Name)
		}
		seenNames[p.Name] = true

		expanded, err := pathutil.ExpandFrom(p.Path, baseDir)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid path for project '%s'", p.Name)).
				WithDetail("project", p.Name)
		}
		p.Path = expanded

		if p.Session == "" {
			p.Session = tmux.SessionNameFor(p.Name)
		}
		if owner, taken := seenSessions[p.Session]; taken {
			return nil, errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("projects '%s' and '%s' share session '%s'", owner, p.Name, p.Session)).
				WithDetail("session", p.Session)
		}
		seenSessions[p.Session] = p.Name
	}

	return projects, nil
}

// StaticRegistry serves the inline targets of the configuration file.
type StaticRegistry struct {
	projects []models.TrackedProject
	only     []string
}

// NewStatic copies projects, applying the same normalization as a file
// registry with relative paths resolved against baseDir.
func NewStatic(projects []models.TrackedProject, only []string, baseDir string) (*StaticRegistry, error) {
	if len(projects) == 0 {
		return nil, errors.New(errors.ErrCodeConfigValidation, "no tracked projects configured")
	}
	normalized, err := normalize(append([]models.TrackedProject(nil), projects...), baseDir)
	if err != nil {
		return nil, err
	}
	return &StaticRegistry{projects: normalized, only: only}, nil
}

// ListTargets returns the configured projects in declaration order.
func (r *StaticRegistry) ListTargets(ctx context.Context) ([]models.TrackedProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Filter(append([]models.TrackedProject(nil), r.projects...), r.only)
}

// Source is what a run reads targets from.
type Source interface {
	ListTargets(ctx context.Context) ([]models.TrackedProject, error)
}

// FromConfig picks the registry the configuration describes. Extra filter
// patterns (from --only) are combined with the config's own.
func FromConfig(cfg *config.Config, extraOnly []string) (Source, error) {
	only := append(append([]string(nil), cfg.Only...), extraOnly...)
	if len(cfg.Targets) > 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get current directory")
		}
		return NewStatic(cfg.Targets, only, cwd)
	}
	path, err := pathutil.Expand(cfg.Registry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid registry path").
			WithDetail("path", cfg.Registry)
	}
	return NewFile(path, only), nil
}
