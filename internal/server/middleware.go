package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
)

// statusRecorder captures the status code while staying flushable and
// hijackable for streaming and websocket handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument tags each request with an id, then logs and counts it.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = ports.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(ports.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		defer func() {
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			endpoint := r.Pattern
			if endpoint == "" {
				endpoint = "unmatched"
			}
			elapsed := time.Since(start)
			s.metrics.ObserveHTTP(r.Method, endpoint, strconv.Itoa(status), elapsed.Seconds())
			s.log.WithFields(map[string]any{
				"request_id":  id,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
			}).Debug("http request")
		}()

		next.ServeHTTP(rec, r)
	})
}
