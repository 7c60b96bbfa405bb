package graph

import (
	"context"
	"io"
)

// NodeFilter narrows a FindNodes call. Zero-value fields are unconstrained.
type NodeFilter struct {
	Type     NodeType
	FilePath string
	NamePart string // case-insensitive substring match against Name
	Limit    int
}

// EdgeFilter narrows a FindEdges call. Zero-value fields are unconstrained.
type EdgeFilter struct {
	SourceID string
	TargetID string
	Type     string
	Limit    int
}

// Store is the persistence interface every graph backend implements. All
// write paths funnel through UpsertNode/UpsertEdge and the ownership-scoped
// delete so that the ownership protocol (see Ownership in ownership.go) can
// be enforced uniformly across backends.
type Store interface {
	io.Closer

	InitSchema(ctx context.Context) error

	UpsertNode(ctx context.Context, n Node) error
	UpsertEdge(ctx context.Context, e Edge) error

	GetNode(ctx context.Context, id string) (*Node, error)
	FindNodes(ctx context.Context, filter NodeFilter) ([]Node, error)
	FindEdges(ctx context.Context, filter EdgeFilter) ([]Edge, error)

	// DeleteEdgesBySourceAndTypes removes every edge whose SourceFile equals
	// sourceFile and whose Type is in types, except edges carrying the
	// UserSourcePrefix (see Edge.IsUserSourced). It returns the number of
	// edges removed.
	DeleteEdgesBySourceAndTypes(ctx context.Context, sourceFile string, types []string) (int, error)

	// DeleteNodesByFile removes every node whose FilePath equals filePath.
	DeleteNodesByFile(ctx context.Context, filePath string) (int, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// Transactor is implemented by stores that can run a sequence of writes
// atomically. Not every backend supports transactions (MemStore does not
// need to); callers should type-assert before relying on it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
