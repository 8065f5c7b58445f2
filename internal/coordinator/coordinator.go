// Package coordinator owns the active vibe and reconciles every channel that
// can change it: the shareable slug, persisted storage, presets, generation
// and screenshot extraction.
//
// Asynchronous generation follows a latest-request-wins discipline. Every
// mutation takes a new token; a generation result is committed only if its
// token is still current when it arrives, otherwise it is dropped without a
// trace. Synchronous operations take a token too, so they always invalidate
// whatever generation is pending.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/persistence"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 30 * time.Second

// Cause names the event that produced a snapshot.
type Cause string

const (
	CauseInit       Cause = "init"
	CausePreset     Cause = "preset"
	CauseReset      Cause = "reset"
	CauseRequest    Cause = "request"
	CauseGeneration Cause = "generation"
	CauseExtraction Cause = "extraction"
	CauseFailure    Cause = "failure"
)

// RequestState is the lifecycle of the current generation request.
type RequestState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is a consistent view of the coordinator. Version increases with
// every state change.
type Snapshot struct {
	Vibe    vibe.Vibe `json:"vibe"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
	Version uint64    `json:"version"`
	Cause   Cause     `json:"cause"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRegistry replaces the builtin presets.
func WithRegistry(reg *presets.Registry) Option {
	return func(c *Coordinator) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithStore sets where the full vibe is persisted.
func WithStore(store persistence.Store) Option {
	return func(c *Coordinator) {
		if store != nil {
			c.store = store
		}
	}
}

// WithSlugStore sets where the shareable slug is written.
func WithSlugStore(slugs persistence.SlugStore) Option {
	return func(c *Coordinator) {
		c.slugs = slugs
	}
}

// WithTimeout bounds each generation request. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithLogger injects a logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics injects a metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(c *Coordinator) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// Coordinator is the single writer of the active vibe.
type Coordinator struct {
	gen      ports.Generator
	registry *presets.Registry
	store    persistence.Store
	slugs    persistence.SlugStore
	timeout  time.Duration
	log      *logger.Logger
	metrics  ports.MetricsCollector

	mu      sync.Mutex
	active  vibe.Vibe
	state   RequestState
	token   uint64
	cancel  context.CancelFunc
	version uint64
	cause   Cause

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	notifyMu      sync.Mutex
	lastDelivered uint64

	persistMu sync.Mutex
}

// New creates a coordinator whose active vibe is the registry default.
func New(gen ports.Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		gen:      gen,
		registry: presets.Builtin(),
		store:    persistence.Disabled(),
		timeout:  DefaultTimeout,
		log:      logger.Nop(),
		metrics:  ports.NoopMetrics{},
		cause:    CauseInit,
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.active = c.registry.Default()
	return c
}

// Registry returns the presets the coordinator resolves keys against.
func (c *Coordinator) Registry() *presets.Registry {
	return c.registry
}

// Initialize resolves the starting vibe: a known preset key from the URL wins,
// then a valid persisted value, then the default. It writes nothing back to
// storage.
func (c *Coordinator) Initialize(urlKey string, persisted *vibe.Vibe) vibe.Vibe {
	resolved, origin := c.resolve(urlKey, persisted)

	c.mu.Lock()
	c.invalidateLocked()
	c.active = resolved
	c.state = RequestState{}
	snap := c.commitLocked(CauseInit)
	c.mu.Unlock()

	c.log.WithFields(map[string]any{"theme": resolved.ThemeName, "origin": origin}).Debug("vibe initialized")
	c.deliver(snap)
	return resolved
}

func (c *Coordinator) resolve(urlKey string, persisted *vibe.Vibe) (vibe.Vibe, string) {
	if urlKey != "" {
		if v, ok := c.registry.Get(urlKey); ok {
			return v, "url"
		}
	}
	if persisted != nil {
		err := vibe.Validate(*persisted)
		if err == nil {
			return *persisted, "storage"
		}
		c.log.WarnErr(err, "ignoring invalid persisted vibe")
	}
	return c.registry.Default(), "default"
}

// Restore reads the slug and the persisted value, then initializes from them.
func (c *Coordinator) Restore(ctx context.Context) vibe.Vibe {
	var urlKey string
	if c.slugs != nil {
		urlKey, _ = c.slugs.ReadSlug(ctx)
	}

	var persisted *vibe.Vibe
	if v, ok := c.store.Load(ctx); ok {
		persisted = &v
	}

	return c.Initialize(urlKey, persisted)
}

// ApplyPreset switches to a preset at once. Unknown keys are ignored and
// reported as false.
func (c *Coordinator) ApplyPreset(key string) bool {
	v, ok := c.registry.Get(key)
	if !ok {
		c.log.With("preset", key).Debug("ignoring unknown preset")
		return false
	}

	ctx := context.Background()

	c.mu.Lock()
	token := c.invalidateLocked()
	c.active = v
	c.state = RequestState{}
	snap := c.commitLocked(CausePreset)
	c.mu.Unlock()

	c.persist(ctx, token, &v, key)
	c.metrics.IncCounter(ctx, ports.MetricThemeChanges, map[string]string{"source": string(CausePreset)})
	c.deliver(snap)
	return true
}

// ResetToDefault restores the default vibe and forgets persisted state.
func (c *Coordinator) ResetToDefault() {
	ctx := context.Background()

	c.mu.Lock()
	token := c.invalidateLocked()
	c.active = c.registry.Default()
	c.state = RequestState{}
	snap := c.commitLocked(CauseReset)
	c.mu.Unlock()

	c.persist(ctx, token, nil, "")

	c.metrics.IncCounter(ctx, ports.MetricThemeChanges, map[string]string{"source": string(CauseReset)})
	c.deliver(snap)
}

// Active returns the active vibe.
func (c *Coordinator) Active() vibe.Vibe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns the current request state.
func (c *Coordinator) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the active vibe and request state together.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every later snapshot. Snapshots arrive in
// increasing Version order; one that is overtaken before delivery is skipped.
// fn runs synchronously and must not call back into mutating operations.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// invalidateLocked takes a fresh token and aborts the pending request.
func (c *Coordinator) invalidateLocked() uint64 {
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.token
}

// persist mirrors the state committed under token to storage, outside c.mu so
// readers never wait on storage I/O. A nil vibe clears storage and the slug.
// If a newer operation has taken over, nothing is written: that operation
// persists its own state. An empty slug clears the shareable slug so a stale
// preset key cannot win the next Restore. Failures are logged only.
func (c *Coordinator) persist(ctx context.Context, token uint64, v *vibe.Vibe, slug string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	current := token == c.token
	c.mu.Unlock()
	if !current {
		c.log.With("token", token).Debug("skipping persistence for superseded state")
		return
	}

	if v == nil {
		if err := c.store.Clear(ctx); err != nil {
			c.log.WarnErr(err, "failed to clear persisted vibe")
		}
	} else if err := c.store.Save(ctx, *v); err != nil {
		c.log.WarnErr(err, "failed to persist vibe")
	}

	if c.slugs == nil {
		return
	}
	var err error
	if slug == "" {
		err = c.slugs.ClearSlug(ctx)
	} else {
		err = c.slugs.WriteSlug(ctx, slug)
	}
	if err != nil {
		c.log.WarnErr(err, "failed to update shareable slug")
	}
}

func (c *Coordinator) commitLocked(cause Cause) Snapshot {
	c.version++
	c.cause = cause
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Vibe:    c.active,
		Loading: c.state.Loading,
		Error:   c.state.Error,
		Version: c.version,
		Cause:   c.cause,
	}
}

func (c *Coordinator) deliver(snap Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if snap.Version <= c.lastDelivered {
		return
	}
	c.lastDelivered = snap.Version

	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
