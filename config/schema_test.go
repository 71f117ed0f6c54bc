package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", doc["$schema"])
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, true, doc["additionalProperties"], "extensions must be allowed at the top level")

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"registry", "targets", "only", "workers", "capture", "signatures", "recovery", "verify", "reports", "notify", "oracle"} {
		assert.Contains(t, props, key)
	}
	assert.NotContains(t, props, "Extensions")

	capture := props["capture"].(map[string]interface{})
	assert.Equal(t, false, capture["additionalProperties"])
	timeout := capture["properties"].(map[string]interface{})["timeout"].(map[string]interface{})
	assert.Equal(t, "string", timeout["type"])
}

func TestSchemaValidatorAcceptsDefaults(t *testing.T) {
	v, err := NewSchemaValidator()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"workers": 4, "capture": {"lines": 30, "timeout": "5s"}, "logging": {"level": "debug"}}`), &raw))
	assert.NoError(t, v.Validate(raw))

	require.NoError(t, json.Unmarshal([]byte(`{"capture": {"lines": 2}}`), &raw))
	assert.Error(t, v.Validate(raw))
}
