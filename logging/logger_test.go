package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/billable-planner/config"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "planner.log")
	logger, closer, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("plan built", "user", "user-1", "days", 251)
	logger.Debug("not written at info level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plan built")
	assert.Contains(t, string(data), "user=user-1")
	assert.NotContains(t, string(data), "not written")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/plan", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
