// Package metrics exposes Prometheus counters and histograms for the code
// graph build pipeline, grounded on the donor's `--metrics-addr` /
// promhttp.Handler() pattern for opt-in metrics exposure.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeatlas_files_analyzed_total",
		Help: "Total number of source files successfully analyzed.",
	})

	FilesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeatlas_files_failed_total",
		Help: "Total number of source files that failed analysis, by error kind.",
	}, []string{"kind"})

	NodesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeatlas_nodes_extracted_total",
		Help: "Total number of graph nodes extracted across all analyzed files.",
	})

	EdgesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeatlas_edges_extracted_total",
		Help: "Total number of graph edges extracted across all analyzed files.",
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codeatlas_build_duration_seconds",
		Help:    "Wall-clock duration of a full build_graph run.",
		Buckets: prometheus.DefBuckets,
	})

	UnknownSymbolsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeatlas_unknown_symbols_resolved_total",
		Help: "Total number of unknown-symbol placeholders resolved to a candidate node with confidence above threshold.",
	})
)

// ObserveBuild records the outcome of one build_graph run.
func ObserveBuild(start time.Time, successful int, failedByKind map[string]int, nodeCount, edgeCount int) {
	BuildDuration.Observe(time.Since(start).Seconds())
	FilesAnalyzed.Add(float64(successful))
	for kind, n := range failedByKind {
		FilesFailed.WithLabelValues(kind).Add(float64(n))
	}
	NodesExtracted.Add(float64(nodeCount))
	EdgesExtracted.Add(float64(edgeCount))
}

// Serve starts an HTTP server exposing /metrics until ctx is cancelled. It
// is a no-op path the caller should only take when metrics were explicitly
// enabled (e.g. via a --metrics-addr flag); addr is never defaulted here.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
