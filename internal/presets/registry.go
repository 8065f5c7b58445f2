// Package presets holds the vibes that ship with Chameleon.
package presets

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// ErrUnknownPreset is returned when a key does not name a preset.
var ErrUnknownPreset = errors.New("unknown preset")

//go:embed presets.yaml
var builtinData []byte

var builtin = mustParse(builtinData)

// Entry is one named preset.
type Entry struct {
	Key   string    `yaml:"key"`
	Label string    `yaml:"label"`
	Vibe  vibe.Vibe `yaml:"vibe"`
}

type presetFile struct {
	Default string  `yaml:"default"`
	Presets []Entry `yaml:"presets"`
}

// Registry is an immutable, ordered key to vibe mapping with one default.
type Registry struct {
	entries    []Entry
	index      map[string]int
	defaultKey string
}

// Builtin returns the registry compiled into the binary.
func Builtin() *Registry {
	return builtin
}

// New builds a registry from entries. Every vibe must be valid, keys unique,
// and defaultKey must name one of the entries.
func New(entries []Entry, defaultKey string) (*Registry, error) {
	if len(entries) == 0 {
		return nil, chamerrors.NewValidationError("presets", "at least one preset is required", nil)
	}

	r := &Registry{
		entries:    make([]Entry, 0, len(entries)),
		index:      make(map[string]int, len(entries)),
		defaultKey: defaultKey,
	}

	for i, entry := range entries {
		field := fmt.Sprintf("presets[%d]", i)
		if entry.Key == "" {
			return nil, chamerrors.NewValidationError(field+".key", "key is required", nil)
		}
		if entry.Key != vibe.Slugify(entry.Key) {
			return nil, chamerrors.NewValidationError(field+".key", fmt.Sprintf("key %q is not slug-safe", entry.Key), nil)
		}
		if _, exists := r.index[entry.Key]; exists {
			return nil, chamerrors.NewValidationError(field+".key", fmt.Sprintf("duplicate preset key %q", entry.Key), nil)
		}
		if err := vibe.Validate(entry.Vibe); err != nil {
			return nil, chamerrors.NewValidationError(field+".vibe", err.Error(), err)
		}

		r.index[entry.Key] = len(r.entries)
		r.entries = append(r.entries, entry)
	}

	if _, ok := r.index[defaultKey]; !ok {
		return nil, chamerrors.NewValidationError("default", fmt.Sprintf("default preset %q is not defined", defaultKey), nil)
	}

	return r, nil
}

// Parse decodes a YAML preset file.
func Parse(data []byte) (*Registry, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, chamerrors.NewParseError("presets.yaml", yamlErrorLine(err), err)
	}
	return New(file.Presets, file.Default)
}

func mustParse(data []byte) *Registry {
	r, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("presets: invalid builtin preset file: %v", err))
	}
	return r
}

// Get returns the preset stored under key.
func (r *Registry) Get(key string) (vibe.Vibe, bool) {
	idx, ok := r.index[key]
	if !ok {
		return vibe.Vibe{}, false
	}
	return r.entries[idx].Vibe, true
}

// Lookup is Get with an error for callers that report unknown keys.
func (r *Registry) Lookup(key string) (vibe.Vibe, error) {
	v, ok := r.Get(key)
	if !ok {
		return vibe.Vibe{}, fmt.Errorf("%w %q", ErrUnknownPreset, key)
	}
	return v, nil
}

// Has reports whether key names a preset.
func (r *Registry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Entries returns the presets in declaration order. The slice is a copy.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Keys returns the preset keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, entry := range r.entries {
		keys[i] = entry.Key
	}
	return keys
}

// Default returns the default vibe.
func (r *Registry) Default() vibe.Vibe {
	v, _ := r.Get(r.defaultKey)
	return v
}

// DefaultKey returns the key of the default preset.
func (r *Registry) DefaultKey() string {
	return r.defaultKey
}

// KeyFor returns the key of the preset equal to v, if any.
func (r *Registry) KeyFor(v vibe.Vibe) (string, bool) {
	for _, entry := range r.entries {
		if vibe.Equal(entry.Vibe, v) {
			return entry.Key, true
		}
	}
	return "", false
}

func yamlErrorLine(err error) int {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		return line
	}
	return 0
}
