package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func TestRegistryValidator(t *testing.T) {
	v, err := NewRegistryValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"name to path map", `{"api": "/srv/api", "web": "~/web"}`, false},
		{"name to object map", `{"api": {"path": "/srv/api", "session": "agent-api"}}`, false},
		{"projects document", `{"projects": [{"name": "api", "path": "/srv/api"}]}`, false},
		{"bare list", `[{"name": "api", "path": "/srv/api", "session": "api"}]`, false},
		{"empty map", `{}`, false},
		{"empty path", `{"api": ""}`, true},
		{"path is a number", `{"api": 42}`, true},
		{"list entry without name", `[{"path": "/srv/api"}]`, true},
		{"unknown field", `{"projects": [{"name": "api", "path": "/srv/api", "color": "red"}]}`, true},
		{"session with selector", `{"api": {"path": "/srv/api", "session": "api:0"}}`, true},
		{"scalar document", `"api"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(decode(t, tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationErrorListsLocations(t *testing.T) {
	v, err := NewRegistryValidator()
	require.NoError(t, err)

	err = v.Validate(decode(t, `{"projects": [{"name": "api"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
	assert.Contains(t, err.Error(), "/projects/0")
}

func TestNewValidatorRejectsBrokenSchema(t *testing.T) {
	_, err := NewValidator("broken.json", []byte(`{"type": 12}`))
	assert.Error(t, err)
}
