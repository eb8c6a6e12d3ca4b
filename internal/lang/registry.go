package lang

import (
	"fmt"
	"path"
	"strings"
)

// ErrUnsupportedLanguage is returned when a file's extension does not match
// any registered adapter. The Builder treats this as a skip, not a fatal
// error (§7): a repository mixing a supported and an unsupported language
// still builds a partial graph over the supported files.
type ErrUnsupportedLanguage struct {
	File string
}

func (e ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("lang: no adapter registered for %q", e.File)
}

// Registry dispatches files and package markers to the Adapter that
// handles them.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a Registry over the given adapters, in priority order
// (first match wins when extensions overlap).
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// For returns the adapter responsible for file, by extension.
func (r *Registry) For(file string) (Adapter, error) {
	ext := strings.ToLower(path.Ext(file))
	for _, a := range r.adapters {
		for _, e := range a.Extensions() {
			if e == ext {
				return a, nil
			}
		}
	}
	return nil, ErrUnsupportedLanguage{File: file}
}

// ForPkgFile returns the adapter that owns a given project-marker file name
// (go.mod, package.json, Gemfile, ...), used by internal/repo to keep
// package files during enumeration and by internal/build to pick such a
// file's adapter.
func (r *Registry) ForPkgFile(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		for _, p := range a.PkgFiles() {
			if p == name {
				return a, true
			}
		}
	}
	return nil, false
}

// All returns every registered adapter, in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// SkipDirs unions every adapter's default skip-dir list (§5 file
// enumeration: vendor/node_modules/.git and language-specific build dirs).
func (r *Registry) SkipDirs() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range r.adapters {
		for _, d := range a.SkipDirs() {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
