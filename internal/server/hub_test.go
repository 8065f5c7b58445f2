package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/client"
	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

func newHubServer(t *testing.T, gen ports.Generator) (*Hub, string) {
	t.Helper()
	hub := NewHub(coordinator.New(gen), nil, nil)
	t.Cleanup(hub.Close)
	srv := newTestServer(t, Options{Hub: hub})
	return hub, srv.URL
}

func decodeReply(t *testing.T, resp *http.Response) themeReply {
	t.Helper()
	var reply themeReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	return reply
}

func TestHubPresetAndReset(t *testing.T) {
	t.Parallel()

	hub, url := newHubServer(t, nil)

	resp := postJSON(t, url+"/api/theme", map[string]string{"preset": "cyberpunk"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decodeReply(t, resp)
	assert.Equal(t, coordinator.StatusApplied, reply.Status)
	assert.Equal(t, "Cyberpunk", reply.Snapshot.Vibe.ThemeName)
	assert.Equal(t, "Cyberpunk", hub.Coordinator().Active().ThemeName)

	resp = postJSON(t, url+"/api/theme", map[string]string{"preset": "vaporwave"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, url+"/api/theme", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, url+"/api/theme", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, presets.Builtin().Default(), decodeReply(t, resp).Snapshot.Vibe)
}

func TestHubDescription(t *testing.T) {
	t.Parallel()

	generated := presets.Builtin().Default()
	generated.ThemeName = "Ocean Breeze"
	gen := ports.GeneratorFunc(func(_ context.Context, description string) (vibe.Vibe, error) {
		if description == "fail" {
			return vibe.Vibe{}, errors.New("model down")
		}
		return generated, nil
	})
	_, url := newHubServer(t, gen)

	resp := postJSON(t, url+"/api/theme", map[string]string{"description": "ocean breeze"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ocean Breeze", decodeReply(t, resp).Snapshot.Vibe.ThemeName)

	resp = postJSON(t, url+"/api/theme", map[string]string{"description": "fail"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	reply := decodeReply(t, resp)
	assert.Equal(t, coordinator.StatusFailed, reply.Status)
	assert.Contains(t, reply.Error, "model down")
	assert.Equal(t, "Ocean Breeze", reply.Snapshot.Vibe.ThemeName, "failure keeps the last good theme")

	getResp, err := http.Get(url + "/api/theme")
	require.NoError(t, err)
	defer getResp.Body.Close()
	var snap coordinator.Snapshot
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&snap))
	assert.Contains(t, snap.Error, "model down")
}

func TestHubRequestOutlivesDisconnectedCaller(t *testing.T) {
	t.Parallel()

	generated := presets.Builtin().Default()
	generated.ThemeName = "Ocean Breeze"
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	gen := ports.GeneratorFunc(func(ctx context.Context, _ string) (vibe.Vibe, error) {
		entered <- struct{}{}
		select {
		case <-release:
			return generated, nil
		case <-ctx.Done():
			return vibe.Vibe{}, ctx.Err()
		}
	})
	hub, url := newHubServer(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/api/theme", strings.NewReader(`{"description":"ocean breeze"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	errs := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
		errs <- err
	}()

	<-entered
	cancel()
	require.Error(t, <-errs)
	close(release)

	require.Eventually(t, func() bool {
		return hub.Coordinator().Active().ThemeName == "Ocean Breeze"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, hub.Coordinator().State().Error)
}

func TestHubPushesSnapshotsToWatchers(t *testing.T) {
	t.Parallel()

	hub, url := newHubServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps := make(chan coordinator.Snapshot, 16)
	done := make(chan error, 1)
	go func() {
		done <- client.New(url).Watch(ctx, func(s coordinator.Snapshot) { snaps <- s })
	}()

	select {
	case first := <-snaps:
		assert.Equal(t, "Academic", first.Vibe.ThemeName)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}
	require.Eventually(t, func() bool { return hub.Watchers() == 1 }, time.Second, 5*time.Millisecond)

	resp := postJSON(t, url+"/api/theme", map[string]string{"preset": "kid"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-snaps:
			if s.Vibe.ThemeName == "Fun Zone" {
				cancel()
				require.NoError(t, <-done)
				return
			}
		case <-deadline:
			t.Fatal("watcher never saw the preset change")
		}
	}
}
