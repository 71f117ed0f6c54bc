package registry

import (
	"testing"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	projects := []models.TrackedProject{
		{Name: "api-core"}, {Name: "api-legacy"}, {Name: "web"}, {Name: "docs"},
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns", nil, []string{"api-core", "api-legacy", "web", "docs"}},
		{"glob", []string{"api-*"}, []string{"api-core", "api-legacy"}},
		{"glob with exclusion", []string{"api-*", "!api-legacy"}, []string{"api-core"}},
		{"exclusions only", []string{"!web", "!docs"}, []string{"api-core", "api-legacy"}},
		{"exact names", []string{"docs", "web"}, []string{"web", "docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(projects, tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilterMatchingNothing(t *testing.T) {
	_, err := Filter([]models.TrackedProject{{Name: "api"}}, []string{"web"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
