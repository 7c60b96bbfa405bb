package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCodeIntelMCPServer creates an MCP server with all 9 code graph tools
// registered.
func NewCodeIntelMCPServer(svc *CodeIntelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codeatlas-codeintel",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Index a repository and build the code graph. Expands configured namespaces into file sets, parses each file with tree-sitter, extracts symbols and relationships scoped by scenario, and computes cohesion clusters.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_nodes",
		Description: "Search the graph store for nodes by type, file path, or a substring of their name.",
	}, svc.FindNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_edges",
		Description: "Search the graph store for edges by source id, target id, or edge type.",
	}, svc.FindEdges)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_hierarchical",
		Description: "Roll up edges whose type is in the registry hierarchy closure of a given edge type.",
	}, svc.QueryHierarchical)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_transitive",
		Description: "Compute the transitive closure of a transitive edge type, optionally restricted to a single start node.",
	}, svc.QueryTransitive)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_inheritable",
		Description: "Propagate an inheritable edge type up through a containment chain from a start node.",
	}, svc.QueryInheritable)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the cohesion clusters discovered during the last build_graph run.",
	}, svc.GetClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_unknowns",
		Description: "Run the unknown-symbol resolver over every unresolved reference currently in the graph, creating alias nodes and aliasOf edges for any candidate matches found.",
	}, svc.ResolveUnknowns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Return node and edge counts for the graph store, broken down by type.",
	}, svc.Stats)

	return server
}

// RunMCPServer starts an HTTP server exposing the code graph MCP tools over
// the streamable HTTP transport.
func RunMCPServer(ctx context.Context, svc *CodeIntelService, addr string) error {
	server := NewCodeIntelMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the code graph MCP tools over stdio, for use as
// a subprocess launched by an MCP client rather than a standalone HTTP
// server.
func RunMCPServerStdio(ctx context.Context, svc *CodeIntelService) error {
	server := NewCodeIntelMCPServer(svc)
	return server.Run(ctx, &mcp.StdioTransport{})
}
