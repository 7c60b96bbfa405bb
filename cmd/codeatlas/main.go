// Command codeatlas indexes a project into a code graph and answers
// structural queries against it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codeatlas/engine/internal/config"
	"github.com/codeatlas/engine/internal/export"
	"github.com/codeatlas/engine/internal/graph"
	"github.com/codeatlas/engine/internal/mcptools"
	"github.com/codeatlas/engine/internal/metrics"
)

// cliFlags are the flags common to every subcommand.
type cliFlags struct {
	ProjectRoot string
	ProjectName string
	Concurrency int
	MetricsAddr string
	Verbose     bool
	Version     bool
}

// version is set by the linker at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codeatlas", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the target project")
	fs.StringVar(&flags.ProjectName, "project-name", "", "project name used to build node identifiers (default: project-root's base name)")
	fs.IntVar(&flags.Concurrency, "concurrency", 0, "number of files analyzed concurrently (default: from codeatlas.yml, else 4)")
	fs.StringVar(&flags.MetricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	projectRoot, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if flags.ProjectName == "" {
		flags.ProjectName = filepath.Base(projectRoot)
	}

	projCfg, err := config.Load(projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load codeatlas.yml: %v\n", err)
		projCfg = &config.ProjectConfig{Batch: config.DefaultBatchConfig()}
	}
	if flags.Concurrency == 0 {
		flags.Concurrency = projCfg.Batch.Concurrency
	}

	positional := fs.Args()
	if len(positional) == 0 {
		printUsage(fs)
		return fmt.Errorf("missing command")
	}

	ctx := context.Background()

	switch positional[0] {
	case "serve-mcp":
		return runServeMCP(ctx, projectRoot, flags)
	case "build":
		return runBuild(ctx, projectRoot, flags, projCfg)
	case "query":
		return runQuery(ctx, projectRoot, flags, positional[1:])
	case "stats":
		return runStats(ctx, projectRoot, flags)
	case "export":
		return runExport(ctx, projectRoot, flags, positional[1:])
	case "diagram":
		return runDiagram(ctx, projectRoot, flags)
	default:
		printUsage(fs)
		return fmt.Errorf("unknown command: %s", positional[0])
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: codeatlas [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	fmt.Fprintln(os.Stderr, "  build                 index the project and build the code graph")
	fmt.Fprintln(os.Stderr, "  query <kind> [args]   run an inference query: hierarchical, transitive, inheritable, nodes, edges")
	fmt.Fprintln(os.Stderr, "  stats                 print graph node/edge counts")
	fmt.Fprintln(os.Stderr, "  export <json|mermaid> write a graph export to stdout")
	fmt.Fprintln(os.Stderr, "  diagram               alias for: export mermaid")
	fmt.Fprintln(os.Stderr, "  serve-mcp             run as an MCP server over stdio")
	fmt.Fprintln(os.Stderr, "\nflags:")
	fs.PrintDefaults()
}

// graphDBPath is where the persistent KuzuDB-backed graph store lives
// between CLI invocations, mirroring the teacher's .decompose/graph layout.
func graphDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".codeatlas", "graph")
}

func openStore(projectRoot string) (graph.Store, error) {
	return graph.NewKuzuFileStore(graphDBPath(projectRoot))
}

func runBuild(ctx context.Context, projectRoot string, flags cliFlags, projCfg *config.ProjectConfig) error {
	store, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	if flags.MetricsAddr != "" {
		metricsCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if err := metrics.Serve(metricsCtx, flags.MetricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
	}

	parser := graph.NewTreeSitterParser(flags.ProjectName)
	svc := mcptools.NewCodeIntelService(store, parser)

	_, output, err := svc.BuildGraph(ctx, nil, mcptools.BuildGraphInput{
		RepoPath:    projectRoot,
		ProjectName: flags.ProjectName,
		Namespaces:  projCfg.Namespaces,
		Concurrency: flags.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	fmt.Printf("indexed %s: %d nodes, %d edges\n", flags.ProjectName, output.Stats.NodeCount, output.Stats.EdgeCount)
	fmt.Printf("analyzed %d files, %d failed\n", len(output.Report.Successful), len(output.Report.Failed))
	for _, f := range output.Report.Failed {
		fmt.Fprintf(os.Stderr, "  failed: %s (%s): %s\n", f.File, f.ErrorKind, f.Message)
	}
	return nil
}

func runQuery(ctx context.Context, projectRoot string, flags cliFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("query requires a kind: hierarchical, transitive, inheritable, nodes, edges")
	}
	kind := args[0]

	qfs := flag.NewFlagSet("codeatlas query "+kind, flag.ContinueOnError)
	typ := qfs.String("type", "", "edge type")
	start := qfs.String("start", "", "start node id")
	parentType := qfs.String("parent-type", "contains", "containment relation type (inheritable queries)")
	maxDepth := qfs.Int("max-depth", 0, "maximum traversal depth (0: default)")
	limit := qfs.Int("limit", 0, "maximum number of results (0: unbounded)")
	namePart := qfs.String("name", "", "substring to match against node names (nodes query)")
	filePath := qfs.String("file", "", "exact file path filter (nodes query)")
	sourceID := qfs.String("source", "", "source node id filter (edges query)")
	targetID := qfs.String("target", "", "target node id filter (edges query)")
	if err := qfs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	store, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	registry := graph.NewRegistry()
	engine := graph.NewEngine(store, registry, graph.DefaultInferenceConfig())

	switch kind {
	case "hierarchical":
		rels, err := engine.Hierarchical(ctx, *typ, graph.HierarchicalOptions{IncludeChildren: true, IncludeParents: true, MaxDepth: *maxDepth})
		if err != nil {
			return fmt.Errorf("query hierarchical: %w", err)
		}
		return printRelationships(rels)
	case "transitive":
		rels, err := engine.Transitive(ctx, *start, *typ, graph.TransitiveOptions{MaxPathLength: *maxDepth})
		if err != nil {
			return fmt.Errorf("query transitive: %w", err)
		}
		return printRelationships(rels)
	case "inheritable":
		if *start == "" {
			return fmt.Errorf("inheritable query requires -start")
		}
		rels, err := engine.Inheritable(ctx, *start, *parentType, *typ, graph.InheritableOptions{MaxInheritanceDepth: *maxDepth})
		if err != nil {
			return fmt.Errorf("query inheritable: %w", err)
		}
		return printRelationships(rels)
	case "nodes":
		nodes, err := store.FindNodes(ctx, graph.NodeFilter{Type: graph.NodeType(*typ), FilePath: *filePath, NamePart: *namePart, Limit: *limit})
		if err != nil {
			return fmt.Errorf("find nodes: %w", err)
		}
		for _, n := range nodes {
			fmt.Printf("%s\t%s\t%s:%d\n", n.Type, n.Name, n.FilePath, n.StartLine)
		}
		return nil
	case "edges":
		edges, err := store.FindEdges(ctx, graph.EdgeFilter{SourceID: *sourceID, TargetID: *targetID, Type: *typ, Limit: *limit})
		if err != nil {
			return fmt.Errorf("find edges: %w", err)
		}
		for _, e := range edges {
			fmt.Printf("%s\t%s -> %s\n", e.Type, e.SourceID, e.TargetID)
		}
		return nil
	default:
		return fmt.Errorf("unknown query kind: %s", kind)
	}
}

func printRelationships(rels []graph.InferredRelationship) error {
	for _, r := range rels {
		fmt.Printf("%s\t%s -> %s\t(depth %d, via %s)\n", r.Type, r.FromNodeID, r.ToNodeID, r.Depth, r.InferenceType)
	}
	fmt.Printf("total: %d\n", len(rels))
	return nil
}

func runStats(ctx context.Context, projectRoot string, flags cliFlags) error {
	store, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("nodes: %d\n", stats.NodeCount)
	for t, n := range stats.NodesByType {
		fmt.Printf("  %s: %d\n", t, n)
	}
	fmt.Printf("edges: %d\n", stats.EdgeCount)
	for t, n := range stats.EdgesByType {
		fmt.Printf("  %s: %d\n", t, n)
	}
	return nil
}

func runExport(ctx context.Context, projectRoot string, flags cliFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("export requires a format: json or mermaid")
	}

	store, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	switch args[0] {
	case "json":
		data, err := export.GenerateJSON(ctx, store)
		if err != nil {
			return fmt.Errorf("generate json: %w", err)
		}
		fmt.Println(string(data))
	case "mermaid":
		diagram, err := export.GenerateMermaid(ctx, store)
		if err != nil {
			return fmt.Errorf("generate mermaid: %w", err)
		}
		fmt.Println(diagram)
	default:
		return fmt.Errorf("unknown export format: %s", args[0])
	}
	return nil
}

func runDiagram(ctx context.Context, projectRoot string, flags cliFlags) error {
	return runExport(ctx, projectRoot, flags, []string{"mermaid"})
}

func runServeMCP(ctx context.Context, projectRoot string, flags cliFlags) error {
	store, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	if flags.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, flags.MetricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
	}

	parser := graph.NewTreeSitterParser(flags.ProjectName)
	svc := mcptools.NewCodeIntelService(store, parser)

	fmt.Fprintf(os.Stderr, "codeatlas MCP server v%s starting on stdio (project: %s)\n", version, projectRoot)
	err = mcptools.RunMCPServerStdio(ctx, svc)
	fmt.Fprintf(os.Stderr, "codeatlas MCP server stopped\n")
	return err
}
