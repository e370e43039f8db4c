// Package registry implements the per-context name-rewriting registry
// described in spec.md §4.2: a mapping from controller-visible
// identifiers (new_X / old_X / flx_X / null) to concrete nodes of the
// merged runtime graph.
package registry

import (
	"strings"
	"sync"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

// Registry maps controller ids to running-graph node names, guarded the
// same way the teacher's coordinator/internal/registry.Registry guards
// its module map: a plain sync.RWMutex over a map, no back-references
// into the graph it describes.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

func New() *Registry {
	return &Registry{entries: map[string]string{}}
}

// Clear drops every registered id. Called at the start of every
// InitP4ObjectsNew, per spec.md §9's registry-lifecycle resolution.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = map[string]string{}
}

// DupCheck fails with DupCheckError if id is already a registry key.
func (r *Registry) DupCheck(id string) *graph.ReconfigError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, exists := r.entries[id]; exists {
		return graph.NewError(graph.DupCheckError, "id %q is already registered", id)
	}
	return nil
}

// Register records id -> name. Callers must DupCheck first; Register
// itself does not re-check, matching the insert primitives' documented
// sequencing (validate, then mutate).
func (r *Registry) Register(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = name
}

// splitPrefix splits "new_foo" into ("new", "foo"). The prefix is
// everything before the first underscore, of whatever length; callers
// then reject any prefix other than the ones they accept.
func splitPrefix(id string) (prefix, actual string, ok bool) {
	idx := strings.IndexByte(id, '_')
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// Resolve converts the first n of ids into concrete running-graph
// names, per spec.md §4.2:
//   - "null" resolves to the empty sentinel, never errors.
//   - new_X / flx_X are looked up in the registry; a miss is
//     UnfoundIDError.
//   - old_X resolves to X unchanged (assumed already in running).
//   - any other prefix is PrefixError.
func (r *Registry) Resolve(ids []string, n int) ([]string, *graph.ReconfigError) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, n)
	for i := 0; i < n; i++ {
		id := ids[i]
		if id == "null" {
			names[i] = graph.EmptyEdge
			continue
		}

		prefix, actual, ok := splitPrefix(id)
		if !ok {
			return nil, graph.NewError(graph.PrefixError, "identifier %q has no prefix", id)
		}

		switch prefix {
		case "new", "flx":
			name, found := r.entries[id]
			if !found {
				return nil, graph.NewError(graph.UnfoundIDError, "identifier %q is not registered", id)
			}
			names[i] = name
		case "old":
			names[i] = actual
		default:
			return nil, graph.NewError(graph.PrefixError, "identifier %q has unsupported prefix %q", id, prefix)
		}
	}
	return names, nil
}

// ResolveOne is a convenience wrapper around Resolve for the common
// single-id case.
func (r *Registry) ResolveOne(id string) (string, *graph.ReconfigError) {
	names, err := r.Resolve([]string{id}, 1)
	if err != nil {
		return "", err
	}
	return names[0], nil
}

// RequireInsertPrefix enforces that an id presented to an insert
// primitive uses exactly the prefix the node kind requires — "new" for
// tables/conditionals/register arrays, "flx" for Flex nodes — per
// spec.md §4.2: "Any other prefix is rejected before any graph
// mutation occurs."
func RequireInsertPrefix(id, wantPrefix string) (actual string, rerr *graph.ReconfigError) {
	prefix, actual, ok := splitPrefix(id)
	if !ok || prefix != wantPrefix {
		return "", graph.NewError(graph.PrefixError, "identifier %q must use prefix %q_", id, wantPrefix)
	}
	return actual, nil
}
