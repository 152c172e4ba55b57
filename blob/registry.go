// Package blob keeps augmentation results in memory behind opaque
// "blob:" references, the terminal counterpart of browser object URLs.
// Every reference must be revoked once it is superseded or its owner
// goes away.
package blob

import (
	"sync"

	"github.com/oklog/ulid/v2"

	augment "github.com/augmentlab/augment-go"
)

// Scheme prefixes every reference URL.
const Scheme = "blob:augment/"

// Ref points at a result held by a Registry.
type Ref struct {
	URL      string
	Kind     augment.ResultKind
	MimeType string
	Filename string
	Size     int
}

// IsZero reports whether r points at nothing.
func (r Ref) IsZero() bool { return r.URL == "" }

// Registry owns result bytes until their reference is revoked.
type Registry struct {
	mu      sync.Mutex
	entries map[string]augment.Result
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]augment.Result)}
}

// Create stores res under a fresh, never reused URL.
func (r *Registry) Create(res augment.Result) Ref {
	url := Scheme + ulid.Make().String()
	r.mu.Lock()
	r.entries[url] = res
	r.mu.Unlock()
	return Ref{
		URL:      url,
		Kind:     res.Kind,
		MimeType: res.MimeType,
		Filename: res.Filename,
		Size:     len(res.Data),
	}
}

// Get returns the result behind url while it is live.
func (r *Registry) Get(url string) (augment.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.entries[url]
	return res, ok
}

// Revoke releases url. It reports whether url was live.
func (r *Registry) Revoke(url string) bool {
	if url == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[url]; !ok {
		return false
	}
	delete(r.entries, url)
	return true
}

// Live returns the number of unrevoked references.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
