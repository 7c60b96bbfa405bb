package graph

import (
	"context"
	"fmt"
)

// Owner is implemented by every analyzer/extractor that writes edges into
// the graph. OwnedEdgeTypes is fixed at construction time and must not
// change across the analyzer's lifetime — the ownership protocol relies on
// it to scope re-analysis deletes so that two analyzers writing to the same
// file never clobber each other's edges.
type Owner interface {
	Name() string
	OwnedEdgeTypes() []string
}

// Ownership coordinates re-analysis for a Store: before an owner writes new
// edges for a file, it deletes exactly the edges it previously wrote for
// that file (its own type set, scoped to that source file), then upserts
// the fresh set. This makes re-analysis idempotent and keeps concurrent
// owners write-write isolated as long as their OwnedEdgeTypes sets are
// disjoint.
type Ownership struct {
	store Store
}

// NewOwnership wraps a Store with ownership-scoped re-analysis helpers.
func NewOwnership(store Store) *Ownership {
	return &Ownership{store: store}
}

// Reanalyze replaces everything owner previously wrote for sourceFile with
// nodes and edges, atomically with respect to other ownership-scoped writes
// when the underlying store supports transactions.
func (o *Ownership) Reanalyze(ctx context.Context, owner Owner, sourceFile string, nodes []Node, edges []Edge) error {
	for _, e := range edges {
		if !ownsTypeGeneric(owner, e.Type) {
			return NewError(KindValidationFailed, "Ownership.Reanalyze",
				fmt.Errorf("analyzer %q attempted to write unowned edge type %q", owner.Name(), e.Type))
		}
	}

	run := func(ctx context.Context, s Store) error {
		if _, err := s.DeleteEdgesBySourceAndTypes(ctx, sourceFile, owner.OwnedEdgeTypes()); err != nil {
			return NewError(KindIO, "Ownership.Reanalyze", err)
		}
		for _, n := range nodes {
			if err := s.UpsertNode(ctx, n); err != nil {
				return NewError(KindIO, "Ownership.Reanalyze", err)
			}
		}
		for _, e := range edges {
			if e.SourceFile == "" {
				e.SourceFile = sourceFile
			}
			if err := s.UpsertEdge(ctx, e); err != nil {
				return NewError(KindIO, "Ownership.Reanalyze", err)
			}
		}
		return nil
	}

	if tx, ok := o.store.(Transactor); ok {
		return tx.Transaction(ctx, run)
	}
	return run(ctx, o.store)
}

// ownerSet is a convenience Owner implementation for analyzers whose owned
// type set is static.
type ownerSet struct {
	name  string
	types []string
}

// NewOwner returns an Owner that owns exactly types, named name.
func NewOwner(name string, types []string) Owner {
	return ownerSet{name: name, types: types}
}

func (o ownerSet) Name() string           { return o.name }
func (o ownerSet) OwnedEdgeTypes() []string { return o.types }

func (o ownerSet) ownsType(t string) bool {
	for _, owned := range o.types {
		if owned == t {
			return true
		}
	}
	return false
}

func ownsTypeGeneric(owner Owner, t string) bool {
	for _, owned := range owner.OwnedEdgeTypes() {
		if owned == t {
			return true
		}
	}
	return false
}
