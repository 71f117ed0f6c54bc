package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("VIGIL_TEST_ROOT", "/srv/projects")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"tilde", "~/code/api", filepath.Join(home, "code", "api")},
		{"bare tilde", "~", home},
		{"env var", "$VIGIL_TEST_ROOT/api", "/srv/projects/api"},
		{"braced env var", "${VIGIL_TEST_ROOT}/web", "/srv/projects/web"},
		{"absolute", "/opt/app", "/opt/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandFrom(t *testing.T) {
	got, err := ExpandFrom("api", "/etc/vigil")
	require.NoError(t, err)
	assert.Equal(t, "/etc/vigil/api", got)

	got, err = ExpandFrom("/abs/api", "/etc/vigil")
	require.NoError(t, err)
	assert.Equal(t, "/abs/api", got)
}
