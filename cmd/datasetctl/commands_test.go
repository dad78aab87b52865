package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, body map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", r.Header.Get("X-User-ID"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPollPrintsFinalPreview(t *testing.T) {
	srv := serve(t, map[string]any{
		"status": "completed", "dataSource": "preview", "totalCount": 1,
		"preview": []map[string]any{{"id": "gid://1"}},
	})

	out, err := run(t, "poll", "9", "--server", srv.URL, "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] completed (preview)")
	assert.Contains(t, out, `"totalCount": 1`)
}

func TestPollReportsFailure(t *testing.T) {
	srv := serve(t, map[string]any{"status": "failed", "dataSource": "minimal", "error": "status 500"})

	_, err := run(t, "poll", "9", "--server", srv.URL, "--user", "u-1")
	require.Error(t, err)
	assert.Equal(t, "execution failed: status 500", err.Error())
}

func TestPollRejectsBadID(t *testing.T) {
	_, err := run(t, "poll", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid execution id")
}

func TestResetStuck(t *testing.T) {
	srv := serve(t, map[string]any{"reset": 2})

	out, err := run(t, "reset-stuck", "--older-than", "45m", "--server", srv.URL, "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "2 executions reset")
}
