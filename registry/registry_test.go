package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func names(projects []models.TrackedProject) []string {
	var out []string
	for _, p := range projects {
		out = append(out, p.Name)
	}
	return out
}

func TestParseShapesPreserveOrder(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"json map", `{"zeta": "/src/zeta", "alpha": "/src/alpha", "mid": {"path": "/src/mid", "session": "mid-agent"}}`},
		{"json projects", `{"projects": [{"name": "zeta", "path": "/src/zeta"}, {"name": "alpha", "path": "/src/alpha"}, {"name": "mid", "path": "/src/mid", "session": "mid-agent"}]}`},
		{"yaml list", "- name: zeta\n  path: /src/zeta\n- name: alpha\n  path: /src/alpha\n- name: mid\n  path: /src/mid\n  session: mid-agent\n"},
		{"yaml map", "zeta: /src/zeta\nalpha: /src/alpha\nmid:\n  path: /src/mid\n  session: mid-agent\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := Parse([]byte(tt.doc), "/")
			require.NoError(t, err)
			assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(projects))
			assert.Equal(t, "zeta", projects[0].Session)
			assert.Equal(t, "mid-agent", projects[2].Session)
			assert.Equal(t, "/src/alpha", projects[1].Path)
		})
	}
}

func TestParseTabIndentedJSON(t *testing.T) {
	projects, err := Parse([]byte("{\n\t\"api\": \"/src/api\"\n}\n"), "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, names(projects))
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a document", `{"api": `},
		{"empty", ``},
		{"numeric path", `{"api": 42}`},
		{"unknown entry key", `{"api": {"path": "/src/api", "tmux": "x"}}`},
		{"list entry without path", `[{"name": "api"}]`},
		{"bad session", `{"api": {"path": "/src/api", "session": "api:0"}}`},
		{"dotted session", `{"api": {"path": "/src/api", "session": "api.v2"}}`},
		{"empty projects", `{"projects": []}`},
		{"duplicate names", `[{"name": "api", "path": "/a"}, {"name": "api", "path": "/b"}]`},
		{"shared session", `{"api": {"path": "/a", "session": "s"}, "web": {"path": "/b", "session": "s"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "/")
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err), "want configuration error, got %v", err)
		})
	}
}

func TestParseResolvesRelativePaths(t *testing.T) {
	base := t.TempDir()
	projects, err := Parse([]byte(`{"api": "api", "web": "../web"}`), base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "api"), projects[0].Path)
	assert.Equal(t, filepath.Join(filepath.Dir(base), "web"), projects[1].Path)
}

func TestParseDefaultSessionSanitized(t *testing.T) {
	projects, err := Parse([]byte(`{"My Project": "/src/p"}`), "/")
	require.NoError(t, err)
	assert.Equal(t, "my-project", projects[0].Session)
}

func TestParseDottedNameGetsReachableSession(t *testing.T) {
	projects, err := Parse([]byte(`{"api.v2": "/src/api", "example.com": "/src/site"}`), "/")
	require.NoError(t, err)
	assert.Equal(t, "api.v2", projects[0].Name)
	assert.Equal(t, "api-v2", projects[0].Session)
	assert.Equal(t, "example-com", projects[1].Session)
}

func TestFileRegistryListTargets(t *testing.T) {
	path := writeRegistry(t, "projects.json", `{"api": "/src/api", "web": "/src/web", "docs": "/src/docs"}`)

	projects, err := NewFile(path, nil).ListTargets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web", "docs"}, names(projects))

	projects, err = NewFile(path, []string{"!docs"}).ListTargets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, names(projects))
}

func TestFileRegistryMissingFile(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.json"), nil).ListTargets(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestFileRegistryInvalidCarriesPath(t *testing.T) {
	path := writeRegistry(t, "projects.yml", "api: [1, 2]\n")
	_, err := NewFile(path, nil).ListTargets(context.Background())
	require.Error(t, err)

	vErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigValidation, vErr.Code)
	assert.Equal(t, path, vErr.Details["path"])
}

func TestStaticRegistry(t *testing.T) {
	reg, err := NewStatic([]models.TrackedProject{
		{Name: "api", Path: "/src/api"},
		{Name: "web", Path: "web", Session: "frontend"},
	}, nil, "/srv")
	require.NoError(t, err)

	projects, err := reg.ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "api", projects[0].Session)
	assert.Equal(t, "/srv/web", projects[1].Path)
	assert.Equal(t, "frontend", projects[1].Session)

	_, err = NewStatic(nil, nil, "/srv")
	assert.True(t, errors.IsConfiguration(err))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{Targets: []models.TrackedProject{{Name: "api", Path: "/src/api"}}}
	src, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticRegistry{}, src)

	cfg = &config.Config{Registry: "/etc/vigil/projects.json"}
	src, err = FromConfig(cfg, []string{"api"})
	require.NoError(t, err)
	file, ok := src.(*FileRegistry)
	require.True(t, ok)
	assert.Equal(t, "/etc/vigil/projects.json", file.Path())
}
