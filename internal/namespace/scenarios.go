package namespace

import (
	"fmt"
	"sort"
)

// ResolveScenarios expands selected into its closure under requires/extends,
// topologically orders it by Kahn's algorithm (requires induces ordering
// only), and merges each scenario's extends chain into its own
// AnalyzerBindings (extends induces type-set inheritance). It rejects a
// requires cycle.
func ResolveScenarios(defs map[string]ScenarioDef, selected []string) ([]ScenarioDef, error) {
	closure := map[string]bool{}
	var queue []string
	queue = append(queue, selected...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if closure[id] {
			continue
		}
		def, ok := defs[id]
		if !ok {
			return nil, fmt.Errorf("namespace: unknown scenario %q", id)
		}
		closure[id] = true
		queue = append(queue, def.Requires...)
		if def.Extends != "" {
			queue = append(queue, def.Extends)
		}
	}

	ids := make([]string, 0, len(closure))
	for id := range closure {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	indegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		indegree[id] = 0
	}
	for _, id := range ids {
		for _, req := range defs[id].Requires {
			indegree[id]++
			dependents[req] = append(dependents[req], id)
		}
	}

	var ready []string
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		next := append([]string{}, dependents[id]...)
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(ids) {
		return nil, fmt.Errorf("namespace: cycle detected among scenarios %v", ids)
	}

	bindingCache := make(map[string][]string, len(ids))
	var effectiveBindings func(id string, seen map[string]bool) []string
	effectiveBindings = func(id string, seen map[string]bool) []string {
		if b, ok := bindingCache[id]; ok {
			return b
		}
		if seen[id] {
			return nil // extends cycle guard: Extends feeds the closure above but not the ordering, so its cycles are cut here
		}
		seen[id] = true
		def := defs[id]
		set := map[string]bool{}
		for _, t := range def.AnalyzerBindings {
			set[t] = true
		}
		if def.Extends != "" {
			for _, t := range effectiveBindings(def.Extends, seen) {
				set[t] = true
			}
		}
		out := make([]string, 0, len(set))
		for t := range set {
			out = append(out, t)
		}
		sort.Strings(out)
		bindingCache[id] = out
		return out
	}

	out := make([]ScenarioDef, 0, len(order))
	for _, id := range order {
		def := defs[id]
		def.AnalyzerBindings = effectiveBindings(id, map[string]bool{})
		out = append(out, def)
	}
	return out, nil
}
