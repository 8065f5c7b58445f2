package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
)

const writeWait = 10 * time.Second

// Hub shares one coordinator between every client of the server and pushes
// its snapshots to websocket watchers.
type Hub struct {
	coord    *coordinator.Coordinator
	upgrader websocket.Upgrader
	log      *logger.Logger
	metrics  ports.MetricsCollector

	mu       sync.Mutex
	watchers map[*watcher]struct{}
	closed   bool

	unsubscribe func()
}

// watcher holds the latest undelivered snapshot for one connection.
type watcher struct {
	conn    *websocket.Conn
	pending chan coordinator.Snapshot
	done    chan struct{}
	once    sync.Once
}

func (w *watcher) offer(s coordinator.Snapshot) {
	for {
		select {
		case w.pending <- s:
			return
		default:
		}
		// Replace a stale snapshot rather than block the coordinator.
		select {
		case <-w.pending:
		default:
		}
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

// NewHub binds a hub to coord.
func NewHub(coord *coordinator.Coordinator, log *logger.Logger, metrics ports.MetricsCollector) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	h := &Hub{
		coord: coord,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:      log.With("component", "hub"),
		metrics:  metrics,
		watchers: make(map[*watcher]struct{}),
	}
	h.unsubscribe = coord.Subscribe(h.broadcast)
	return h
}

// Coordinator returns the shared coordinator.
func (h *Hub) Coordinator() *coordinator.Coordinator {
	return h.coord
}

// Watchers returns the number of connected watchers.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// Close disconnects every watcher and detaches from the coordinator.
func (h *Hub) Close() {
	h.unsubscribe()

	h.mu.Lock()
	h.closed = true
	for w := range h.watchers {
		w.stop()
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(s coordinator.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers {
		w.offer(s)
	}
}

func (h *Hub) add(w *watcher) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.watchers[w] = struct{}{}
	h.metrics.SetGauge(context.Background(), ports.MetricWatchers, float64(len(h.watchers)), nil)
	return true
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers, w)
	h.metrics.SetGauge(context.Background(), ports.MetricWatchers, float64(len(h.watchers)), nil)
}

func (h *Hub) handleWatch(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.log.WarnErr(err, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	w := &watcher{conn: conn, pending: make(chan coordinator.Snapshot, 1), done: make(chan struct{})}
	if !h.add(w) {
		return
	}
	defer h.remove(w)

	w.offer(h.coord.Snapshot())

	// Watchers only listen; reading detects the peer going away.
	go func() {
		defer w.stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-w.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case snap := <-w.pending:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				h.log.WarnErr(err, "dropping theme watcher")
				return
			}
		}
	}
}

func (h *Hub) handleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.Snapshot())
}

type themeCommand struct {
	Preset      string `json:"preset"`
	Description string `json:"description"`
}

type themeReply struct {
	Status   coordinator.Status   `json:"status"`
	Error    string               `json:"error,omitempty"`
	Snapshot coordinator.Snapshot `json:"snapshot"`
}

func (h *Hub) handlePost(w http.ResponseWriter, r *http.Request) {
	var cmd themeCommand
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "Preset or description is required")
		return
	}

	switch {
	case cmd.Preset != "":
		if !h.coord.ApplyPreset(cmd.Preset) {
			writeError(w, http.StatusNotFound, "Unknown preset")
			return
		}
		writeJSON(w, http.StatusOK, themeReply{Status: coordinator.StatusApplied, Snapshot: h.coord.Snapshot()})

	case strings.TrimSpace(cmd.Description) != "":
		outcome := h.coord.ChangeTheme(context.WithoutCancel(r.Context()), cmd.Description)
		reply := themeReply{Status: outcome.Status, Snapshot: h.coord.Snapshot()}
		status := http.StatusOK
		switch outcome.Status {
		case coordinator.StatusFailed:
			status = http.StatusBadGateway
			reply.Error = outcome.Err.Error()
		case coordinator.StatusSuperseded:
			status = http.StatusConflict
		}
		writeJSON(w, status, reply)

	default:
		writeError(w, http.StatusBadRequest, "Preset or description is required")
	}
}

func (h *Hub) handleDelete(w http.ResponseWriter, _ *http.Request) {
	h.coord.ResetToDefault()
	writeJSON(w, http.StatusOK, themeReply{Status: coordinator.StatusApplied, Snapshot: h.coord.Snapshot()})
}
