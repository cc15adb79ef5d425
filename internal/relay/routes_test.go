package relay

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	f, err := Parse([]byte(`
routes:
  - path: /a
    calls:
      - name: b
        url: http://localhost:8001/b
      - url: http://localhost:8002/c
        method: post
  - path: /b
    method: put
    status: 202
    delay: 15ms
`))
	require.NoError(t, err)
	require.Len(t, f.Routes, 2)

	a := f.Routes[0]
	assert.Equal(t, http.MethodGet, a.Method)
	assert.Equal(t, http.StatusOK, a.Status)
	require.Len(t, a.Calls, 2)
	assert.Equal(t, "b", a.Calls[0].Name)
	assert.Equal(t, http.MethodGet, a.Calls[0].Method)
	assert.Equal(t, "http://localhost:8002/c", a.Calls[1].Name)
	assert.Equal(t, http.MethodPost, a.Calls[1].Method)

	b := f.Routes[1]
	assert.Equal(t, http.MethodPut, b.Method)
	assert.Equal(t, http.StatusAccepted, b.Status)
	assert.Equal(t, 15*time.Millisecond, b.delay)
	assert.Empty(t, b.Calls)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "relative path", yaml: "routes:\n  - path: a\n"},
		{name: "duplicate", yaml: "routes:\n  - path: /a\n  - path: /a\n    method: GET\n"},
		{name: "bad status", yaml: "routes:\n  - path: /a\n    status: 42\n"},
		{name: "bad delay", yaml: "routes:\n  - path: /a\n    delay: soon\n"},
		{name: "call without url", yaml: "routes:\n  - path: /a\n    calls:\n      - name: b\n"},
		{name: "unknown key", yaml: "routes:\n  - path: /a\n    retries: 3\n"},
		{name: "not yaml", yaml: "routes: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - path: /health-check\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Routes, 1)
	assert.Equal(t, "/health-check", f.Routes[0].Path)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
