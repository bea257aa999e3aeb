package sources

import "sort"

// Registry holds every configured adapter, keyed by name. The pipeline
// engine's search step looks adapters up here by name; it never imports a
// concrete adapter type directly.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns every registered adapter name, sorted for determinism.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Searchers returns the subset of names (or all, if names is empty) that
// implement Searcher.
func (r *Registry) Searchers(names []string) map[string]Searcher {
	out := make(map[string]Searcher)
	candidates := names
	if len(candidates) == 0 {
		candidates = r.Names()
	}
	for _, n := range candidates {
		a, ok := r.adapters[n]
		if !ok {
			continue
		}
		if s, ok := a.(Searcher); ok {
			out[n] = s
		}
	}
	return out
}
