// Package morph adapts a block of text to the active voice by streaming it
// through a rewriter. Each Text owns a display buffer that starts as the
// source and is progressively replaced by the rewritten text.
package morph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// DefaultTimeout bounds a single rewrite stream.
const DefaultTimeout = 60 * time.Second

// Status is how a rewrite ended.
type Status string

const (
	// StatusCompleted means the stream finished and the buffer holds the rewrite.
	StatusCompleted Status = "completed"
	// StatusFailed means the buffer was reverted to the source.
	StatusFailed Status = "failed"
	// StatusSuperseded means a newer rewrite took over the buffer.
	StatusSuperseded Status = "superseded"
	// StatusPassthrough means the neutral tone showed the source without a call.
	StatusPassthrough Status = "passthrough"
	// StatusIdle means no rewrite was started.
	StatusIdle Status = "idle"
)

// Result reports the end of one rewrite.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// Buffer is what should be displayed right now.
type Buffer struct {
	Text      string
	Streaming bool
	Err       error
	Version   uint64
}

// Option configures a Text.
type Option func(*Text)

// WithSourceURL passes a grounding URL with each rewrite.
func WithSourceURL(url string) Option {
	return func(t *Text) {
		t.sourceURL = url
	}
}

// WithAuto toggles automatic rewrites on voice and source changes.
func WithAuto(auto bool) Option {
	return func(t *Text) {
		t.auto = auto
	}
}

// WithTimeout bounds each rewrite stream. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(t *Text) {
		t.timeout = d
	}
}

// WithLogger injects a logger.
func WithLogger(log *logger.Logger) Option {
	return func(t *Text) {
		if log != nil {
			t.log = log
		}
	}
}

// WithMetrics injects a metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(t *Text) {
		if metrics != nil {
			t.metrics = metrics
		}
	}
}

// WithID names the text in logs.
func WithID(id string) Option {
	return func(t *Text) {
		t.id = id
	}
}

// Text is one adaptable block of prose.
type Text struct {
	rewriter  ports.Rewriter
	sourceURL string
	id        string
	timeout   time.Duration
	log       *logger.Logger
	metrics   ports.MetricsCollector

	mu      sync.Mutex
	source  string
	voice   vibe.Voice
	auto    bool
	gen     uint64
	cancel  context.CancelFunc
	buf     Buffer
	version uint64

	subMu  sync.Mutex
	subs   map[int]func(Buffer)
	nextID int

	notifyMu      sync.Mutex
	lastDelivered uint64
}

// New creates a Text showing source under the neutral voice.
func New(rewriter ports.Rewriter, source string, opts ...Option) *Text {
	t := &Text{
		rewriter: rewriter,
		source:   source,
		voice:    vibe.Voice{Tone: vibe.ToneNeutral, EmojiFrequency: vibe.EmojiNone},
		auto:     true,
		timeout:  DefaultTimeout,
		log:      logger.Nop(),
		metrics:  ports.NoopMetrics{},
		buf:      Buffer{Text: source},
		subs:     make(map[int]func(Buffer)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		t.id = ports.NewRequestID()
	}
	t.log = t.log.With("text_id", t.id)
	return t
}

// Source returns the original text.
func (t *Text) Source() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source
}

// Voice returns the voice the text is adapted to.
func (t *Text) Voice() vibe.Voice {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.voice
}

// Auto reports whether voice and source changes trigger rewrites.
func (t *Text) Auto() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.auto
}

// SetAuto toggles automatic rewrites. Turning it on does not start one.
func (t *Text) SetAuto(auto bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.auto = auto
}

// SetVoice adapts the text to voice. With auto enabled a changed voice starts
// a new rewrite; otherwise the buffer keeps its last applied value.
func (t *Text) SetVoice(ctx context.Context, voice vibe.Voice) <-chan Result {
	t.mu.Lock()
	if t.voice == voice {
		t.mu.Unlock()
		return idle(t.Snapshot().Text)
	}
	t.voice = voice
	auto := t.auto
	t.mu.Unlock()

	if !auto {
		return idle(t.Snapshot().Text)
	}
	return t.Rewrite(ctx)
}

// SetSource replaces the original text. The buffer resets to the new source
// and, with auto enabled, a rewrite starts.
func (t *Text) SetSource(ctx context.Context, source string) <-chan Result {
	t.mu.Lock()
	if t.source == source {
		t.mu.Unlock()
		return idle(t.Snapshot().Text)
	}
	t.source = source
	t.invalidateLocked()
	t.buf = Buffer{Text: source}
	snap := t.commitLocked()
	auto := t.auto
	t.mu.Unlock()

	t.deliver(snap)
	if !auto {
		return idle(source)
	}
	return t.Rewrite(ctx)
}

// Rewrite starts a rewrite for the current source and voice, superseding any
// stream in flight. The channel yields one Result and is then closed.
func (t *Text) Rewrite(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)

	t.mu.Lock()
	gen := t.invalidateLocked()
	source := t.source
	voice := t.voice

	if voice.Tone == vibe.ToneNeutral || voice.Tone == "" {
		t.buf = Buffer{Text: source}
		snap := t.commitLocked()
		t.mu.Unlock()

		t.deliver(snap)
		t.metrics.IncCounter(ctx, ports.MetricRewriteStreams, map[string]string{"tone": string(vibe.ToneNeutral), "status": string(StatusPassthrough)})
		out <- Result{Status: StatusPassthrough, Text: source}
		close(out)
		return out
	}

	ctx, requestID := ports.EnsureRequestID(ctx)
	var streamCtx context.Context
	var cancel context.CancelFunc
	if t.timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, t.timeout)
	} else {
		streamCtx, cancel = context.WithCancel(ctx)
	}
	t.cancel = cancel
	t.buf = Buffer{Text: t.buf.Text, Streaming: true}
	snap := t.commitLocked()
	t.mu.Unlock()

	t.deliver(snap)

	req := ports.RewriteRequest{
		Text:           source,
		Tone:           voice.Tone,
		EmojiFrequency: voice.EmojiFrequency,
		SourceURL:      t.sourceURL,
	}
	log := t.log.WithFields(map[string]any{"request_id": requestID, "tone": string(voice.Tone), "generation": gen})

	go func() {
		defer close(out)
		defer cancel()
		result := t.stream(streamCtx, gen, req, log)
		t.metrics.IncCounter(ctx, ports.MetricRewriteStreams, map[string]string{"tone": string(voice.Tone), "status": string(result.Status)})
		out <- result
	}()

	return out
}

func (t *Text) stream(ctx context.Context, gen uint64, req ports.RewriteRequest, log *logger.Logger) Result {
	if t.rewriter == nil {
		return t.fail(gen, req, chamerrors.NewRewriteError(string(req.Tone), "no rewriter configured", nil), log)
	}

	chunks, err := t.rewriter.Rewrite(ctx, req)
	if err != nil {
		return t.fail(gen, req, chamerrors.NewRewriteError(string(req.Tone), failureReason(ctx, err, "request failed"), err), log)
	}

	var acc strings.Builder
	for chunk, err := range chunks {
		if err != nil {
			return t.fail(gen, req, chamerrors.NewRewriteError(string(req.Tone), failureReason(ctx, err, "stream broke"), err), log)
		}
		acc.WriteString(chunk)
		if !t.applyChunk(gen, acc.String()) {
			log.Debug("dropping chunks of superseded rewrite")
			return Result{Status: StatusSuperseded}
		}
		t.metrics.IncCounter(ctx, ports.MetricRewriteChunks, nil)
	}

	if err := ctx.Err(); err != nil {
		return t.fail(gen, req, chamerrors.NewRewriteError(string(req.Tone), failureReason(ctx, err, "stream broke"), err), log)
	}
	return t.finish(gen, req, acc.String(), log)
}

func failureReason(ctx context.Context, err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timed out"
	}
	return fallback
}

// applyChunk shows the accumulated text if gen is still current.
func (t *Text) applyChunk(gen uint64, text string) bool {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return false
	}
	t.buf = Buffer{Text: text, Streaming: true}
	snap := t.commitLocked()
	t.mu.Unlock()

	t.deliver(snap)
	return true
}

// finish ends a stream. An empty rewrite leaves the source visible.
func (t *Text) finish(gen uint64, req ports.RewriteRequest, text string, log *logger.Logger) Result {
	if text == "" {
		text = req.Text
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return Result{Status: StatusSuperseded}
	}
	t.cancel = nil
	t.buf = Buffer{Text: text}
	snap := t.commitLocked()
	t.mu.Unlock()

	log.Debug("rewrite completed")
	t.deliver(snap)
	return Result{Status: StatusCompleted, Text: text}
}

// fail reverts the buffer to the source and raises the error flag.
func (t *Text) fail(gen uint64, req ports.RewriteRequest, err error, log *logger.Logger) Result {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return Result{Status: StatusSuperseded}
	}
	t.cancel = nil
	t.buf = Buffer{Text: req.Text, Err: err}
	snap := t.commitLocked()
	t.mu.Unlock()

	log.WarnErr(err, "rewrite failed, showing original text")
	t.deliver(snap)
	return Result{Status: StatusFailed, Text: req.Text, Err: err}
}

// Snapshot returns the current display buffer.
func (t *Text) Snapshot() Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.buf
	b.Version = t.version
	return b
}

// Subscribe registers fn for every later buffer change, in Version order.
func (t *Text) Subscribe(fn func(Buffer)) (unsubscribe func()) {
	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			t.subMu.Unlock()
		})
	}
}

// Close aborts the stream in flight, if any. A partially streamed buffer
// reverts to the source.
func (t *Text) Close() {
	t.mu.Lock()
	t.invalidateLocked()
	if !t.buf.Streaming {
		t.mu.Unlock()
		return
	}
	t.buf = Buffer{Text: t.source}
	snap := t.commitLocked()
	t.mu.Unlock()

	t.deliver(snap)
}

func (t *Text) invalidateLocked() uint64 {
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return t.gen
}

func (t *Text) commitLocked() Buffer {
	t.version++
	b := t.buf
	b.Version = t.version
	return b
}

func (t *Text) deliver(b Buffer) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	if b.Version <= t.lastDelivered {
		return
	}
	t.lastDelivered = b.Version

	t.subMu.Lock()
	fns := make([]func(Buffer), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()

	for _, fn := range fns {
		fn(b)
	}
}

func idle(text string) <-chan Result {
	out := make(chan Result, 1)
	out <- Result{Status: StatusIdle, Text: text}
	close(out)
	return out
}
