// Package passes implements spec.md §4.6/§4.7's pass framework: a
// version-stamped analysis cache per container plus the four reference
// transforms (dead code elimination, literal-broadcast promotion,
// function cloning, predecessor hoisting).
//
// Grounded on the teacher's internal/passes.Manager identifier-keyed
// cache, adapted from its "explicit Invalidate(pass) call" discipline
// to this spec's monotonic-version design note (spec.md §9): instead of
// transforms remembering to invalidate every dependent analysis by
// name, each container (Module, Function) carries its own Version()
// counter, and a cache entry is valid only while that counter matches
// the value recorded when the entry was produced.
package passes

import "tenir/internal/ir"

// versioned is any container whose Version() increases on mutation.
type versioned interface {
	Version() uint64
}

// Manager caches analysis results for a single versioned container,
// keyed by an arbitrary identifier (one Manager per Function is the
// common case; a module-level analysis uses its own Manager keyed the
// same way).
type Manager struct {
	container versioned
	entries   map[string]cacheEntry
}

type cacheEntry struct {
	version uint64
	value   interface{}
}

// NewManager builds a Manager bound to container.
func NewManager(container versioned) *Manager {
	return &Manager{container: container, entries: map[string]cacheEntry{}}
}

// Get returns a cached result for id if it was produced at the
// container's current version, else runs compute, caches, and returns
// the fresh result -- spec.md §4.6's "results are cached ... keyed by
// the pass identifier" plus §9's version-stamped invalidation.
func (m *Manager) Get(id string, compute func() interface{}) interface{} {
	v := m.container.Version()
	if e, ok := m.entries[id]; ok && e.version == v {
		return e.value
	}
	val := compute()
	m.entries[id] = cacheEntry{version: v, value: val}
	return val
}

// Invalidate drops every cached entry for this container immediately,
// for callers (e.g. a driver running an explicit pass pipeline) that
// want to force recomputation without waiting for the next version
// bump. Ordinary transform-then-analyze flows don't need this: a
// changed container's Version() already moved, so Get recomputes on
// its own.
func (m *Manager) Invalidate() {
	m.entries = map[string]cacheEntry{}
}

// ForFunction returns fn's own PassManager (spec.md §4.6's "the body's
// PassManager"), creating and storing it in fn.PassCache on first use.
func ForFunction(fn *ir.Function) *Manager {
	if m, ok := fn.PassCache.(*Manager); ok {
		return m
	}
	m := NewManager(fn)
	fn.PassCache = m
	return m
}

// ForModule returns mod's own PassManager, creating and storing it in
// mod.PassCache on first use.
func ForModule(mod *ir.Module) *Manager {
	if m, ok := mod.PassCache.(*Manager); ok {
		return m
	}
	m := NewManager(mod)
	mod.PassCache = m
	return m
}
