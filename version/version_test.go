package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "dev", "none"
	assert.Equal(t, "vigil/dev", UserAgent())

	Version, Commit = "v0.3.0", "3f2b8c1e9a"
	assert.Equal(t, "vigil/v0.3.0 (3f2b8c1)", UserAgent())
}

func TestInfoString(t *testing.T) {
	out := GetInfo().String()
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Commit:")
	assert.Contains(t, out, "Platform:")
}
