// Package registry holds the live tools materialized from a document. There
// is at most one live tool per object id.
package registry

import (
	"sort"
	"sync"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
)

// Tool is the live, computed representation of one document node.
type Tool interface {
	ID() ident.ID
	Kind() ident.ToolKind
}

// Registry maps object ids to live tools. It is owned by a single pattern
// document and mutated only from the goroutine that parses it.
type Registry struct {
	mu       sync.RWMutex
	tools    map[ident.ID]Tool
	onRemove []Tool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[ident.ID]Tool)}
}

// Add registers t. A tool previously registered under the same id is
// replaced and queued for removal, so the registry never holds two live tools
// for one id.
func (r *Registry) Add(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.tools[t.ID()]; ok && old != t {
		r.onRemove = append(r.onRemove, old)
	}
	r.tools[t.ID()] = t
}

// Get returns the tool registered under id.
func (r *Registry) Get(id ident.ID) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	if !ok {
		return nil, perr.BadID(id)
	}
	return t, nil
}

// Has reports whether id has a live tool.
func (r *Registry) Has(id ident.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[id]
	return ok
}

// Remove drops the tool registered under id and queues it for disposal.
func (r *Registry) Remove(id ident.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tools[id]; ok {
		r.onRemove = append(r.onRemove, t)
		delete(r.tools, id)
	}
}

// PendingRemoval returns the tools queued for disposal.
func (r *Registry) PendingRemoval() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, len(r.onRemove))
	copy(out, r.onRemove)
	return out
}

// ClearRemovalQueue forgets the tools queued for disposal.
func (r *Registry) ClearRemovalQueue() {
	r.mu.Lock()
	r.onRemove = nil
	r.mu.Unlock()
}

// Clear drops every tool and the removal queue.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.tools = make(map[ident.ID]Tool)
	r.onRemove = nil
	r.mu.Unlock()
}

// Len returns the number of live tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// IDs returns the ids of all live tools in ascending order.
func (r *Registry) IDs() []ident.ID {
	r.mu.RLock()
	ids := make([]ident.ID, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
