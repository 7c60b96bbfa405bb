package mcptools

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codeatlas/engine/internal/batch"
	"github.com/codeatlas/engine/internal/graph"
	"github.com/codeatlas/engine/internal/metrics"
	"github.com/codeatlas/engine/internal/namespace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CodeIntelService holds the graph store, parser, and derived engines used
// by MCP tool handlers.
type CodeIntelService struct {
	store    graph.Store
	parser   graph.Parser
	registry *graph.Registry
	engine   *graph.Engine
	resolver *graph.UnknownResolver
}

// NewCodeIntelService creates a CodeIntelService over store and parser with
// a freshly seeded edge type registry and inference engine.
func NewCodeIntelService(store graph.Store, parser graph.Parser) *CodeIntelService {
	registry := graph.NewRegistry()
	return &CodeIntelService{
		store:    store,
		parser:   parser,
		registry: registry,
		engine:   graph.NewEngine(store, registry, graph.DefaultInferenceConfig()),
		resolver: graph.NewUnknownResolver(store),
	}
}

// BuildGraph expands every configured namespace's file set, analyzes each
// file once with bounded concurrency, persists results scoped per
// namespace+scenario ownership, then computes cohesion clusters. Returns
// graph statistics plus the batch run's per-file report.
func (s *CodeIntelService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	if input.RepoPath == "" {
		return nil, BuildGraphOutput{}, fmt.Errorf("repoPath is required")
	}

	started := time.Now()

	projectName := input.ProjectName
	if projectName == "" {
		projectName = filepath.Base(input.RepoPath)
	}

	nsConfigs := input.Namespaces
	if len(nsConfigs) == 0 {
		nsConfigs = map[string]namespace.Config{
			"default": {FilePatterns: []string{"**/*"}},
		}
	}

	if err := s.store.InitSchema(ctx); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("init schema: %w", err)
	}

	fileNamespaces := make(map[string][]string)
	tasksByPath := make(map[string]batch.FileTask)
	for nsName, cfg := range nsConfigs {
		matches, err := namespace.ExpandFiles(input.RepoPath, cfg)
		if err != nil {
			return nil, BuildGraphOutput{}, fmt.Errorf("expand namespace %q: %w", nsName, err)
		}
		for _, m := range matches {
			fileNamespaces[m.Path] = append(fileNamespaces[m.Path], nsName)
			tasksByPath[m.Path] = batch.FileTask{Path: m.Path, AbsPath: m.AbsPath, Language: m.Language}
		}
	}

	tasks := make([]batch.FileTask, 0, len(tasksByPath))
	for _, t := range tasksByPath {
		tasks = append(tasks, t)
	}

	knownFiles := make([]string, 0, len(tasksByPath))
	for p := range tasksByPath {
		knownFiles = append(knownFiles, p)
	}
	importResolver := graph.NewImportResolver(input.RepoPath, knownFiles)

	orch := namespace.NewOrchestrator(s.store, nil)
	apply := func(ctx context.Context, task batch.FileTask, result *graph.ParseResult) error {
		result.Edges = importResolver.ResolveAll(result.Edges, task.Language, projectName)
		for _, nsName := range fileNamespaces[task.Path] {
			cfg := nsConfigs[nsName]
			match := namespace.FileMatch{Path: task.Path, AbsPath: task.AbsPath, Language: task.Language}
			if err := orch.RunNamespace(ctx, projectName, nsName, cfg, match, result); err != nil {
				return err
			}
		}
		return nil
	}

	s.registry.Lock()
	runner := batch.NewRunner(s.parser, apply, input.Concurrency, 0, 1, nil)
	report, err := runner.Run(ctx, tasks)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("analyze: %w", err)
	}

	if err := s.engine.NotifyMutation(ctx); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("notify mutation: %w", err)
	}

	if _, err := graph.ComputeClusters(ctx, s.store, projectName); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("compute clusters: %w", err)
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("stats: %w", err)
	}

	failedByKind := make(map[string]int)
	for _, f := range report.Failed {
		failedByKind[string(f.ErrorKind)]++
	}
	metrics.ObserveBuild(started, len(report.Successful), failedByKind, stats.NodeCount, stats.EdgeCount)

	return nil, BuildGraphOutput{Stats: *stats, Report: *report}, nil
}

// FindNodes searches the graph store for nodes matching a filter.
func (s *CodeIntelService) FindNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindNodesInput,
) (*mcp.CallToolResult, FindNodesOutput, error) {
	nodes, err := s.store.FindNodes(ctx, graph.NodeFilter{
		Type:     graph.NodeType(input.Type),
		FilePath: input.FilePath,
		NamePart: input.NamePart,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, FindNodesOutput{}, fmt.Errorf("find nodes: %w", err)
	}
	return nil, FindNodesOutput{Nodes: nodes, Total: len(nodes)}, nil
}

// FindEdges searches the graph store for edges matching a filter.
func (s *CodeIntelService) FindEdges(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindEdgesInput,
) (*mcp.CallToolResult, FindEdgesOutput, error) {
	edges, err := s.store.FindEdges(ctx, graph.EdgeFilter{
		SourceID: input.SourceID,
		TargetID: input.TargetID,
		Type:     input.Type,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, FindEdgesOutput{}, fmt.Errorf("find edges: %w", err)
	}
	return nil, FindEdgesOutput{Edges: edges, Total: len(edges)}, nil
}

// QueryHierarchical rolls up edges whose type is in the hierarchy closure
// of the requested type.
func (s *CodeIntelService) QueryHierarchical(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryHierarchicalInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	rels, err := s.engine.Hierarchical(ctx, input.Type, graph.HierarchicalOptions{
		IncludeChildren: input.IncludeChildren,
		IncludeParents:  input.IncludeParents,
		MaxDepth:        input.MaxDepth,
	})
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("query hierarchical: %w", err)
	}
	return nil, QueryOutput{Relationships: rels, Total: len(rels)}, nil
}

// QueryTransitive computes the transitive closure of a type, optionally
// restricted to a single start node.
func (s *CodeIntelService) QueryTransitive(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryTransitiveInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	rels, err := s.engine.Transitive(ctx, input.Start, input.Type, graph.TransitiveOptions{
		MaxPathLength:     input.MaxPathLength,
		DetectCycles:      input.DetectCycles,
		Strict:            input.Strict,
		RelationshipTypes: input.RelationshipTypes,
	})
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("query transitive: %w", err)
	}
	return nil, QueryOutput{Relationships: rels, Total: len(rels)}, nil
}

// QueryInheritable propagates a child relation type up through a parent
// containment chain from a start node.
func (s *CodeIntelService) QueryInheritable(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInheritableInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	if input.Start == "" {
		return nil, QueryOutput{}, fmt.Errorf("start is required")
	}
	rels, err := s.engine.Inheritable(ctx, input.Start, input.ParentType, input.ChildType, graph.InheritableOptions{
		MaxInheritanceDepth: input.MaxInheritanceDepth,
		DetectCycles:        input.DetectCycles,
		Strict:              input.Strict,
	})
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("query inheritable: %w", err)
	}
	return nil, QueryOutput{Relationships: rels, Total: len(rels)}, nil
}

// GetClusters returns the cohesion clusters computed during the last build_graph run.
func (s *CodeIntelService) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	clusters, err := graph.LoadClusters(ctx, s.store)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("load clusters: %w", err)
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}

// ResolveUnknowns runs the unknown-symbol resolver over every unresolved
// reference currently in the graph.
func (s *CodeIntelService) ResolveUnknowns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveUnknownsInput,
) (*mcp.CallToolResult, ResolveUnknownsOutput, error) {
	if input.ProjectName == "" {
		return nil, ResolveUnknownsOutput{}, fmt.Errorf("projectName is required")
	}
	results, err := s.resolver.ResolveProject(ctx, input.ProjectName)
	if err != nil {
		return nil, ResolveUnknownsOutput{}, fmt.Errorf("resolve unknowns: %w", err)
	}
	return nil, ResolveUnknownsOutput{Results: results}, nil
}

// Stats returns summary counts for the graph store.
func (s *CodeIntelService) Stats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, StatsOutput{Stats: *stats}, nil
}
