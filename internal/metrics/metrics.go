// Package metrics provides Prometheus metrics for the sitemap server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ItemOpsTotal counts tree mutations by operation.
	ItemOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_item_operations_total",
		Help: "Total number of item mutations, by operation.",
	}, []string{"op"})

	// MarkerOpsTotal counts marker mutations by operation.
	MarkerOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_marker_operations_total",
		Help: "Total number of marker mutations, by operation.",
	}, []string{"op"})

	// FlowOpsTotal counts flow mutations by operation.
	FlowOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_flow_operations_total",
		Help: "Total number of flow mutations, by operation.",
	}, []string{"op"})

	// TreeCacheLookups counts tree cache lookups by result.
	TreeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_tree_cache_lookups_total",
		Help: "Total number of tree cache lookups, by result (hit/miss).",
	}, []string{"result"})

	// ArtifactBytes observes uploaded artifact sizes.
	ArtifactBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitemap_artifact_upload_bytes",
		Help:    "Sizes of uploaded artifacts in bytes.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)

// RecordItemOp increments the item mutation counter.
func RecordItemOp(op string) {
	ItemOpsTotal.WithLabelValues(op).Inc()
}

// RecordMarkerOp increments the marker mutation counter.
func RecordMarkerOp(op string) {
	MarkerOpsTotal.WithLabelValues(op).Inc()
}

// RecordFlowOp increments the flow mutation counter.
func RecordFlowOp(op string) {
	FlowOpsTotal.WithLabelValues(op).Inc()
}

// RecordCacheLookup counts one tree cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TreeCacheLookups.WithLabelValues(result).Inc()
}

// RecordArtifactUpload observes one uploaded artifact.
func RecordArtifactUpload(size int64) {
	ArtifactBytes.Observe(float64(size))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
