package graph

import (
	"context"
	"fmt"
	"sort"
	"time"
)

func errUnknownType(t string) error     { return fmt.Errorf("unknown edge type %q", t) }
func errNotTransitive(t string) error   { return fmt.Errorf("edge type %q is not transitive", t) }
func errNotInheritable(t string) error  { return fmt.Errorf("edge type %q is not inheritable", t) }
func errCycle(start, node string) error { return fmt.Errorf("cycle detected reaching %q from %q", node, start) }

// CacheSyncStrategy selects when the Inference Cache is refreshed relative
// to edge mutations.
type CacheSyncStrategy string

const (
	SyncEager  CacheSyncStrategy = "eager"
	SyncLazy   CacheSyncStrategy = "lazy"
	SyncManual CacheSyncStrategy = "manual"
)

// InferenceConfig configures the Inference Engine per spec §6.3.
type InferenceConfig struct {
	EnableCache              bool
	CacheSyncStrategy        CacheSyncStrategy
	DefaultMaxPathLength     int
	DefaultMaxHierarchyDepth int // 0 means unbounded
	EnableCycleDetection     bool
}

// DefaultInferenceConfig matches spec.md §6.3's stated defaults.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		EnableCache:          true,
		CacheSyncStrategy:    SyncLazy,
		DefaultMaxPathLength: 10,
		EnableCycleDetection: true,
	}
}

// InferredRelationship is a derived relationship produced by one of the
// three inference query kinds.
type InferredRelationship struct {
	FromNodeID    string    `json:"fromNodeId"`
	ToNodeID      string    `json:"toNodeId"`
	Type          string    `json:"type"`
	EdgePath      []string  `json:"edgePath"`
	Depth         int       `json:"depth"`
	InferenceType string    `json:"inferenceType"` // hierarchical | transitive | inheritable
	Description   string    `json:"description"`
	InferredAt    time.Time `json:"inferredAt"`
	SourceFile    string    `json:"sourceFile,omitempty"`
}

// TransitiveOptions configures a transitive closure query.
type TransitiveOptions struct {
	MaxPathLength     int
	DetectCycles      bool
	Strict            bool // CycleDetected is a hard error instead of a silent stop
	RelationshipTypes []string
}

// InheritableOptions configures an inheritable propagation query.
type InheritableOptions struct {
	MaxInheritanceDepth int
	DetectCycles        bool
	Strict              bool
}

// HierarchicalOptions configures a hierarchical rollup query.
type HierarchicalOptions struct {
	IncludeChildren bool
	IncludeParents  bool
	MaxDepth        int // 0 means unbounded (registry depth already caps at 3)
}

// Engine is the Inference Engine (C7): hierarchical, transitive, and
// inheritable queries over a Store's edge set, backed by an optional
// Inference Cache.
type Engine struct {
	store    Store
	registry *Registry
	cfg      InferenceConfig
	cache    *inferenceCache
}

// NewEngine creates an Engine over store using registry's type hierarchy.
func NewEngine(store Store, registry *Registry, cfg InferenceConfig) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		cfg:      cfg,
		cache:    newInferenceCache(),
	}
}

func edgeKey(e Edge) string {
	return e.SourceID + "->" + e.TargetID + ":" + e.Type
}

// Hierarchical returns every edge whose type is in the closure of typ under
// the registry's parent/child links — a pure type-level rollup with no
// graph traversal beyond the edge set itself.
func (eng *Engine) Hierarchical(ctx context.Context, typ string, opts HierarchicalOptions) ([]InferredRelationship, error) {
	def, ok := eng.registry.Lookup(typ)
	if !ok {
		return nil, nil // unknown root type returns empty, does not error
	}

	closure := map[string]int{typ: 0} // type -> hierarchy distance from typ
	if opts.IncludeChildren {
		for _, d := range eng.registry.Descendants(typ) {
			if _, seen := closure[d]; !seen {
				closure[d] = hierarchyDistance(eng.registry, typ, d)
			}
		}
	}
	if opts.IncludeParents {
		for _, a := range eng.registry.Ancestors(typ) {
			if _, seen := closure[a]; !seen {
				closure[a] = hierarchyDistance(eng.registry, typ, a)
			}
		}
	}
	_ = def

	var out []InferredRelationship
	for t, dist := range closure {
		if opts.MaxDepth > 0 && dist > opts.MaxDepth {
			continue
		}
		edges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: t})
		if err != nil {
			return nil, NewError(KindIO, "Engine.Hierarchical", err)
		}
		for _, e := range edges {
			out = append(out, InferredRelationship{
				FromNodeID:    e.SourceID,
				ToNodeID:      e.TargetID,
				Type:          e.Type,
				EdgePath:      []string{edgeKey(e)},
				Depth:         dist,
				InferenceType: "hierarchical",
				Description:   "rollup of " + e.Type + " under " + typ,
				InferredAt:    time.Now(),
				SourceFile:    e.SourceFile,
			})
		}
	}
	sortRelationships(out)
	return out, nil
}

// hierarchyDistance returns the number of parent hops between root and t in
// either direction (t is assumed to be an ancestor or descendant of root).
func hierarchyDistance(r *Registry, root, t string) int {
	for i, a := range r.Ancestors(t) {
		if a == root {
			return i + 1
		}
	}
	for i, a := range r.Ancestors(root) {
		if a == t {
			return i + 1
		}
	}
	if t == root {
		return 0
	}
	// t is a non-ancestor descendant of root reached via Descendants.
	chain := 0
	cur := t
	for {
		def, ok := r.Lookup(cur)
		if !ok || def.ParentType == "" {
			break
		}
		chain++
		if def.ParentType == root {
			return chain
		}
		cur = def.ParentType
	}
	return chain
}

// Transitive computes the fixed point of typ (and any additional
// RelationshipTypes) over the edge subgraph: A→B, B→C ⇒ A→C. typ must be
// registered with is_transitive=true.
func (eng *Engine) Transitive(ctx context.Context, start string, typ string, opts TransitiveOptions) ([]InferredRelationship, error) {
	def, ok := eng.registry.Lookup(typ)
	if !ok {
		return nil, NewError(KindUnknownEdgeType, "Engine.Transitive", errUnknownType(typ))
	}
	if !def.IsTransitive {
		return nil, NewError(KindValidationFailed, "Engine.Transitive", errNotTransitive(typ))
	}

	maxLen := opts.MaxPathLength
	if maxLen <= 0 {
		maxLen = eng.cfg.DefaultMaxPathLength
		if maxLen <= 0 {
			maxLen = 10
		}
	}

	types := append([]string{typ}, opts.RelationshipTypes...)
	adj := make(map[string][]Edge)
	for _, t := range types {
		edges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: t})
		if err != nil {
			return nil, NewError(KindIO, "Engine.Transitive", err)
		}
		for _, e := range edges {
			adj[e.SourceID] = append(adj[e.SourceID], e)
		}
	}

	var starts []string
	if start != "" {
		starts = []string{start}
	} else {
		for s := range adj {
			starts = append(starts, s)
		}
		sort.Strings(starts)
	}

	var out []InferredRelationship
	for _, s := range starts {
		rels, err := eng.transitiveFrom(s, typ, adj, maxLen, opts)
		if err != nil {
			return out, err
		}
		out = append(out, rels...)
	}
	sortRelationships(out)
	return out, nil
}

// transitiveFrom walks adj from s, tracking the visited prefix of the
// *current path only* (not a global visited set) so that distinct paths
// into the same node are still explored, per spec §4.7's cycle guard.
func (eng *Engine) transitiveFrom(s, typ string, adj map[string][]Edge, maxLen int, opts TransitiveOptions) ([]InferredRelationship, error) {
	type frame struct {
		node  string
		depth int
		path  []string // edge keys
		seen  map[string]bool
	}

	var out []InferredRelationship
	seenPairs := make(map[string]bool) // dedupe by target node at the start-node level

	stack := []frame{{node: s, depth: 0, seen: map[string]bool{s: true}}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth >= maxLen {
			continue
		}

		for _, e := range adj[f.node] {
			if f.seen[e.TargetID] {
				if opts.Strict && opts.DetectCycles {
					return out, NewError(KindCycleDetected, "Engine.Transitive", errCycle(s, e.TargetID))
				}
				continue // silent stop into an already-visited node on this path
			}

			depth := f.depth + 1
			key := e.TargetID
			dedupeKey := key
			if !seenPairs[dedupeKey] {
				seenPairs[dedupeKey] = true
				out = append(out, InferredRelationship{
					FromNodeID:    s,
					ToNodeID:      e.TargetID,
					Type:          typ,
					EdgePath:      append(append([]string{}, f.path...), edgeKey(e)),
					Depth:         depth,
					InferenceType: "transitive",
					Description:   "transitive closure of " + typ,
					InferredAt:    time.Now(),
					SourceFile:    e.SourceFile,
				})
			}

			nextSeen := make(map[string]bool, len(f.seen)+1)
			for k := range f.seen {
				nextSeen[k] = true
			}
			nextSeen[e.TargetID] = true

			stack = append(stack, frame{
				node:  e.TargetID,
				depth: depth,
				path:  append(append([]string{}, f.path...), edgeKey(e)),
				seen:  nextSeen,
			})
		}
	}

	return out, nil
}

// Inheritable propagates childRelType edges up through parentRelType chains:
// parent(start, X) extended with child(X, Y) yields child(start, Y).
// childRelType must have is_inheritable=true.
func (eng *Engine) Inheritable(ctx context.Context, start, parentRelType, childRelType string, opts InheritableOptions) ([]InferredRelationship, error) {
	childDef, ok := eng.registry.Lookup(childRelType)
	if !ok {
		return nil, NewError(KindUnknownEdgeType, "Engine.Inheritable", errUnknownType(childRelType))
	}
	if !childDef.IsInheritable {
		return nil, NewError(KindValidationFailed, "Engine.Inheritable", errNotInheritable(childRelType))
	}

	maxDepth := opts.MaxInheritanceDepth
	if maxDepth <= 0 {
		maxDepth = eng.cfg.DefaultMaxPathLength
		if maxDepth <= 0 {
			maxDepth = 10
		}
	}

	parentEdges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: parentRelType})
	if err != nil {
		return nil, NewError(KindIO, "Engine.Inheritable", err)
	}
	parentAdj := make(map[string][]Edge)
	for _, e := range parentEdges {
		parentAdj[e.SourceID] = append(parentAdj[e.SourceID], e)
	}

	childEdges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: childRelType})
	if err != nil {
		return nil, NewError(KindIO, "Engine.Inheritable", err)
	}
	childAdj := make(map[string][]Edge)
	for _, e := range childEdges {
		childAdj[e.SourceID] = append(childAdj[e.SourceID], e)
	}

	// Walk the parent chain from start depth-first and extend every reached
	// node's child edges; each target is reported once, at the depth it was
	// first reached.
	type frame struct {
		node  string
		depth int
		path  []string
		seen  map[string]bool
	}

	var out []InferredRelationship
	seenResult := make(map[string]bool)

	stack := []frame{{node: start, depth: 0, seen: map[string]bool{start: true}}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, ce := range childAdj[f.node] {
			childDepth := f.depth + 1
			if childDepth > maxDepth {
				continue
			}
			if !seenResult[ce.TargetID] {
				seenResult[ce.TargetID] = true
				out = append(out, InferredRelationship{
					FromNodeID:    start,
					ToNodeID:      ce.TargetID,
					Type:          childRelType,
					EdgePath:      append(append([]string{}, f.path...), edgeKey(ce)),
					Depth:         childDepth,
					InferenceType: "inheritable",
					Description:   childRelType + " inherited via " + parentRelType,
					InferredAt:    time.Now(),
					SourceFile:    ce.SourceFile,
				})
			}
		}

		if f.depth >= maxDepth {
			continue
		}
		for _, pe := range parentAdj[f.node] {
			if f.seen[pe.TargetID] {
				if opts.Strict && opts.DetectCycles {
					return out, NewError(KindCycleDetected, "Engine.Inheritable", errCycle(start, pe.TargetID))
				}
				continue
			}
			nextSeen := make(map[string]bool, len(f.seen)+1)
			for k := range f.seen {
				nextSeen[k] = true
			}
			nextSeen[pe.TargetID] = true
			stack = append(stack, frame{
				node:  pe.TargetID,
				depth: f.depth + 1,
				path:  append(append([]string{}, f.path...), edgeKey(pe)),
				seen:  nextSeen,
			})
		}
	}

	sortRelationships(out)
	return out, nil
}

// ValidationReport summarizes the result of Engine.Validate.
type ValidationReport struct {
	Valid         bool     `json:"valid"`
	HierarchyDefs int      `json:"hierarchyDefs"`
	CyclesFound   []string `json:"cyclesFound,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

const (
	maxValidateDepth        = 50
	maxValidateCyclesPerDef = 100
)

// Validate checks the registry's hierarchy depth and runs a bounded cycle
// search over every transitive edge type's subgraph, per spec §4.7.
func (eng *Engine) Validate(ctx context.Context) (*ValidationReport, error) {
	report := &ValidationReport{Valid: true}

	for _, def := range eng.registry.All() {
		report.HierarchyDefs++
		depth := 0
		for cur := def; cur.ParentType != ""; depth++ {
			if depth > maxValidateDepth {
				report.Valid = false
				report.Errors = append(report.Errors, fmt.Sprintf("edge type %q exceeds max validation depth %d", def.Name, maxValidateDepth))
				break
			}
			parent, ok := eng.registry.Lookup(cur.ParentType)
			if !ok {
				report.Valid = false
				report.Errors = append(report.Errors, fmt.Sprintf("edge type %q has unknown parent %q", cur.Name, cur.ParentType))
				break
			}
			cur = parent
		}

		if !def.IsTransitive {
			continue
		}
		edges, err := eng.store.FindEdges(ctx, EdgeFilter{Type: def.Name})
		if err != nil {
			return report, NewError(KindIO, "Engine.Validate", err)
		}
		adj := make(map[string][]string)
		for _, e := range edges {
			adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
		}
		cycles := findCycles(adj, maxValidateCyclesPerDef)
		for _, c := range cycles {
			report.Valid = false
			report.CyclesFound = append(report.CyclesFound, def.Name+": "+c)
		}
	}

	return report, nil
}

// findCycles runs a bounded DFS cycle search over adj, returning up to limit
// human-readable cycle descriptions.
func findCycles(adj map[string][]string, limit int) []string {
	var cycles []string
	color := make(map[string]int) // 0=white,1=gray,2=black
	var path []string

	var visit func(n string) bool
	visit = func(n string) bool {
		if len(cycles) >= limit {
			return true
		}
		color[n] = 1
		path = append(path, n)
		for _, next := range adj[n] {
			if len(cycles) >= limit {
				return true
			}
			switch color[next] {
			case 1:
				cycles = append(cycles, next+" -> "+next)
			case 0:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = 2
		return false
	}

	for n := range adj {
		if color[n] == 0 {
			if visit(n) {
				break
			}
		}
	}
	return cycles
}

func sortRelationships(rels []InferredRelationship) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].FromNodeID != rels[j].FromNodeID {
			return rels[i].FromNodeID < rels[j].FromNodeID
		}
		if rels[i].ToNodeID != rels[j].ToNodeID {
			return rels[i].ToNodeID < rels[j].ToNodeID
		}
		return rels[i].Depth < rels[j].Depth
	})
}
