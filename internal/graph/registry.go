package graph

import (
	"fmt"
	"sync"
)

// EdgeTypeDef describes one entry in the edge type registry: its place in
// the type hierarchy and which inference modes it participates in.
type EdgeTypeDef struct {
	Name          string
	ParentType    string // "" for a root type
	IsTransitive  bool
	IsInheritable bool
	Core          bool // compiled-in vs runtime-registered
}

const maxRegistryDepth = 3

// coreEdgeTypes is the compiled-in hierarchy every registry starts with.
// This reproduces the canonical seed hierarchy exactly:
//
//	depends_on (transitive)
//	 ├─ imports
//	 │   ├─ imports_library
//	 │   └─ imports_file
//	 ├─ calls
//	 ├─ references
//	 ├─ extends (inheritable)
//	 ├─ implements (inheritable)
//	 ├─ uses
//	 ├─ instantiates
//	 └─ accesses
//	contains (transitive, inheritable)
//	 └─ declares (inheritable)
//	belongs_to (transitive)
//	has_type | returns | throws | assigns_to | overrides | shadows | annotated_with | exports_to | aliasOf
var coreEdgeTypes = []EdgeTypeDef{
	{Name: "depends_on", ParentType: "", IsTransitive: true, Core: true},
	{Name: "imports", ParentType: "depends_on", Core: true},
	{Name: "imports_library", ParentType: "imports", Core: true},
	{Name: "imports_file", ParentType: "imports", Core: true},
	{Name: "calls", ParentType: "depends_on", Core: true},
	{Name: "references", ParentType: "depends_on", Core: true},
	{Name: "extends", ParentType: "depends_on", IsInheritable: true, Core: true},
	{Name: "implements", ParentType: "depends_on", IsInheritable: true, Core: true},
	{Name: "uses", ParentType: "depends_on", Core: true},
	{Name: "instantiates", ParentType: "depends_on", Core: true},
	{Name: "accesses", ParentType: "depends_on", Core: true},

	{Name: "contains", ParentType: "", IsTransitive: true, IsInheritable: true, Core: true},
	{Name: "declares", ParentType: "contains", IsInheritable: true, Core: true},

	{Name: "belongs_to", ParentType: "", IsTransitive: true, Core: true},

	{Name: "has_type", ParentType: "", Core: true},
	{Name: "returns", ParentType: "", Core: true},
	{Name: "throws", ParentType: "", Core: true},
	{Name: "assigns_to", ParentType: "", Core: true},
	{Name: "overrides", ParentType: "", Core: true},
	{Name: "shadows", ParentType: "", Core: true},
	{Name: "annotated_with", ParentType: "", Core: true},
	{Name: "exports_to", ParentType: "", Core: true},
	{Name: "aliasOf", ParentType: "", Core: true},
}

// Registry holds the code graph's edge type hierarchy. It starts seeded with
// coreEdgeTypes and accepts further registrations until Lock is called —
// build_graph calls it before its first file analysis.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]EdgeTypeDef
	locked bool
}

// NewRegistry returns a Registry seeded with the canonical core hierarchy.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]EdgeTypeDef, len(coreEdgeTypes))}
	for _, t := range coreEdgeTypes {
		r.types[t.Name] = t
	}
	return r
}

// Register adds an extended (non-core) edge type to the registry. It fails
// if the registry is locked, the name already exists, the parent is
// unknown, or registering would exceed the maximum hierarchy depth of 3.
func (r *Registry) Register(def EdgeTypeDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return &Error{Kind: KindRegistryLocked, Op: "Register", Err: fmt.Errorf("registry locked: cannot register %q", def.Name)}
	}
	if def.Name == "" {
		return &Error{Kind: KindValidationFailed, Op: "Register", Err: fmt.Errorf("edge type name must not be empty")}
	}
	if _, exists := r.types[def.Name]; exists {
		return &Error{Kind: KindValidationFailed, Op: "Register", Err: fmt.Errorf("edge type %q already registered", def.Name)}
	}

	depth := 1
	if def.ParentType != "" {
		parent, ok := r.types[def.ParentType]
		if !ok {
			return &Error{Kind: KindUnknownEdgeType, Op: "Register", Err: fmt.Errorf("unknown parent type %q", def.ParentType)}
		}
		depth = r.depthOf(parent) + 1
		if depth > maxRegistryDepth {
			return &Error{Kind: KindHierarchyViolation, Op: "Register", Err: fmt.Errorf("registering %q under %q exceeds max depth %d", def.Name, def.ParentType, maxRegistryDepth)}
		}
	}

	def.Core = false
	r.types[def.Name] = def
	return nil
}

// depthOf returns the 1-based depth of t in the hierarchy. Caller must hold
// r.mu.
func (r *Registry) depthOf(t EdgeTypeDef) int {
	depth := 1
	cur := t
	for cur.ParentType != "" {
		parent, ok := r.types[cur.ParentType]
		if !ok {
			break
		}
		depth++
		cur = parent
	}
	return depth
}

// Lock freezes the registry; further Register calls fail with
// KindRegistryLocked. Lock is idempotent.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Locked reports whether the registry has been frozen.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// Lookup returns the definition for a registered edge type.
func (r *Registry) Lookup(name string) (EdgeTypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[name]
	return def, ok
}

// Ancestors returns name's parent chain, nearest first, not including name
// itself.
func (r *Registry) Ancestors(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	cur, ok := r.types[name]
	if !ok {
		return out
	}
	for cur.ParentType != "" {
		out = append(out, cur.ParentType)
		parent, ok := r.types[cur.ParentType]
		if !ok {
			break
		}
		cur = parent
	}
	return out
}

// IsA reports whether candidate is name itself or one of its ancestors —
// i.e. whether an edge of type candidate satisfies a query for type name.
func (r *Registry) IsA(candidate, name string) bool {
	if candidate == name {
		return true
	}
	for _, a := range r.Ancestors(candidate) {
		if a == name {
			return true
		}
	}
	return false
}

// Descendants returns every registered type whose ancestry includes name,
// name included.
func (r *Registry) Descendants(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{name}
	for tname := range r.types {
		if tname == name {
			continue
		}
		cur, ok := r.types[tname]
		for ok && cur.ParentType != "" {
			if cur.ParentType == name {
				out = append(out, tname)
				break
			}
			cur, ok = r.types[cur.ParentType]
		}
	}
	return out
}

// All returns every registered edge type definition.
func (r *Registry) All() []EdgeTypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EdgeTypeDef, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	return out
}
