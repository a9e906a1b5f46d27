package platform

import "strings"

// Registry maps platform identifiers to adapters. New platforms register
// here; the dispatch code never switches on platform names.
type Registry struct {
	publishers map[string]Publisher
	fetchers   map[string]MetricsFetcher
	aliases    map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
		fetchers:   make(map[string]MetricsFetcher),
		aliases:    make(map[string]string),
	}
}

// Register adds an adapter under its own name for every capability it
// implements.
func (r *Registry) Register(adapter interface{ Name() string }) {
	name := adapter.Name()
	if p, ok := adapter.(Publisher); ok {
		r.publishers[name] = p
	}
	if f, ok := adapter.(MetricsFetcher); ok {
		r.fetchers[name] = f
	}
}

// Alias makes requests for one identifier resolve to another ("x" to
// "twitter").
func (r *Registry) Alias(alias, canonical string) {
	r.aliases[alias] = canonical
}

// Canonical lowercases the identifier and resolves aliases.
func (r *Registry) Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := r.aliases[name]; ok {
		return c
	}
	return name
}

// Normalize canonicalizes a requested platform set and collapses
// duplicates, preserving first-seen order.
func (r *Registry) Normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c := r.Canonical(n)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (r *Registry) Publisher(name string) (Publisher, bool) {
	p, ok := r.publishers[r.Canonical(name)]
	return p, ok
}

func (r *Registry) Fetcher(name string) (MetricsFetcher, bool) {
	f, ok := r.fetchers[r.Canonical(name)]
	return f, ok
}
