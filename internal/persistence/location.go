package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// Location is a navigable URL whose query carries the slug.
type Location struct {
	mu    sync.RWMutex
	u     *url.URL
	param string
}

// NewLocation parses raw. An empty param selects DefaultParam.
func NewLocation(raw, param string) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, chamerrors.NewValidationError("share.base_url", fmt.Sprintf("invalid URL %q", raw), err)
	}
	if param == "" {
		param = DefaultParam
	}
	return &Location{u: u, param: param}, nil
}

// ReadSlug returns the slug present in the URL.
func (l *Location) ReadSlug(_ context.Context) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	slug := l.u.Query().Get(l.param)
	return slug, slug != ""
}

// WriteSlug replaces the slug in the URL, leaving other parameters intact.
func (l *Location) WriteSlug(_ context.Context, slug string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setParam(slug)
	return nil
}

// ClearSlug removes the slug parameter.
func (l *Location) ClearSlug(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setParam("")
	return nil
}

// ShareURL renders the current URL.
func (l *Location) ShareURL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.u.String()
}

func (l *Location) setParam(slug string) {
	q := l.u.Query()
	if slug == "" {
		q.Del(l.param)
	} else {
		q.Set(l.param, slug)
	}
	l.u.RawQuery = q.Encode()
}

// FileLocation is a Location whose current URL survives between runs.
type FileLocation struct {
	path  string
	base  string
	param string
}

// NewFileLocation stores the URL in path, starting from base when the file
// does not exist yet.
func NewFileLocation(path, base, param string) *FileLocation {
	if param == "" {
		param = DefaultParam
	}
	return &FileLocation{path: path, base: base, param: param}
}

func (f *FileLocation) load() (*Location, error) {
	raw := f.base
	data, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		if stored := strings.TrimSpace(string(data)); stored != "" {
			raw = stored
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, chamerrors.NewStorageError("location", "read", err)
	}
	return NewLocation(raw, f.param)
}

func (f *FileLocation) save(l *Location) error {
	if err := writeFileAtomic(f.path, []byte(l.ShareURL()+"\n"), 0o644); err != nil {
		return chamerrors.NewStorageError("location", "write", err)
	}
	return nil
}

// ReadSlug returns the slug of the stored URL.
func (f *FileLocation) ReadSlug(ctx context.Context) (string, bool) {
	l, err := f.load()
	if err != nil {
		return "", false
	}
	return l.ReadSlug(ctx)
}

// WriteSlug updates the stored URL.
func (f *FileLocation) WriteSlug(ctx context.Context, slug string) error {
	l, err := f.load()
	if err != nil {
		return err
	}
	_ = l.WriteSlug(ctx, slug)
	return f.save(l)
}

// ClearSlug removes the slug from the stored URL.
func (f *FileLocation) ClearSlug(ctx context.Context) error {
	l, err := f.load()
	if err != nil {
		return err
	}
	_ = l.ClearSlug(ctx)
	return f.save(l)
}

// ShareURL returns the URL to hand to someone else.
func (f *FileLocation) ShareURL() (string, error) {
	l, err := f.load()
	if err != nil {
		return "", err
	}
	return l.ShareURL(), nil
}
