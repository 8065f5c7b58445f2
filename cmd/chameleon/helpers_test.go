package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/server"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// setupHome points HOME at a temp dir and clears environment overrides so
// every command sees the default configuration.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHAMELEON_LOG_LEVEL", "error")
	t.Setenv("CHAMELEON_LOG_FORMAT", "json")
	t.Setenv("CHAMELEON_API_BASE_URL", "")
	t.Setenv("CHAMELEON_LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	return home
}

func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	root.SetIn(stdin)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)
	return out
}

func showActive(t *testing.T, extra ...string) vibe.Vibe {
	t.Helper()
	out := mustExecute(t, append([]string{"show", "--json"}, extra...)...)

	var v vibe.Vibe
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

// startAPI serves opts over HTTP and points the CLI at it.
func startAPI(t *testing.T, opts server.Options) {
	t.Helper()
	ts := httptest.NewServer(server.New(opts).Handler())
	t.Cleanup(ts.Close)
	t.Setenv("CHAMELEON_API_BASE_URL", ts.URL)
}

func neonVibe() vibe.Vibe {
	v := presets.Builtin().Default()
	v.ThemeName = "Neon Nights"
	v.Colors.Primary = "#ff00ff"
	v.Voice.Tone = vibe.ToneTechnical
	return v
}

// lastValue records the most recent value seen by a handler goroutine.
type lastValue[T any] struct {
	mu sync.Mutex
	v  T
}

func (l *lastValue[T]) Set(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.v = v
}

func (l *lastValue[T]) Get() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}
