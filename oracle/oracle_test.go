package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandOracle(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	assert.NoError(t, NewCommand("sh", "-c", "exit 0").Check(context.Background()))

	err := NewCommand("sh", "-c", "echo checking; echo 2 builds failing >&2; exit 1").Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOracleFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "2 builds failing")
}

func TestCommandOracleMissingBinary(t *testing.T) {
	err := NewCommand("vigil-no-such-oracle").Check(context.Background())
	assert.Error(t, err)
}

func TestHTTPOracle(t *testing.T) {
	status := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("queue backlog: 42\n"))
	}))
	defer ts.Close()

	oracle := NewHTTP(ts.URL)
	assert.NoError(t, oracle.Check(context.Background()))

	status = http.StatusServiceUnavailable
	err := oracle.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOracleFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "queue backlog: 42")
}

func TestHTTPOracleUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	err := NewHTTP(url).Check(context.Background())
	assert.Equal(t, errors.ErrCodeOracleFailed, errors.GetCode(err))
}

func TestFromConfig(t *testing.T) {
	assert.Nil(t, FromConfig(config.OracleConfig{}))
	assert.IsType(t, &Command{}, FromConfig(config.OracleConfig{Command: []string{"true"}}))
	assert.IsType(t, &HTTP{}, FromConfig(config.OracleConfig{URL: "https://status.example.com"}))
}
