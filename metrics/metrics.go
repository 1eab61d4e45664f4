// Package metrics registers the service's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchRequests counts hybrid search requests served
	SearchRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_search_requests_total",
		Help: "Total number of search requests served.",
	})

	// SearchDegraded counts searches answered lexical-only because no
	// query embedding could be obtained
	SearchDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_search_degraded_total",
		Help: "Total number of searches served without a query embedding.",
	})

	// DocumentsIngested counts judgment rows persisted by the pipeline
	DocumentsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_documents_ingested_total",
		Help: "Total number of judgments persisted by ingestion.",
	})

	// RecordsFailed counts ingestion records dropped by validation
	RecordsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_ingest_records_failed_total",
		Help: "Total number of ingestion records that failed validation.",
	})

	// VectorsEmbedded counts embeddings written to documents or chunks
	VectorsEmbedded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_vectors_embedded_total",
		Help: "Total number of embeddings written to storage.",
	})

	// EmbeddingCacheHits counts embedding cache hits
	EmbeddingCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_embedding_cache_hits_total",
		Help: "Total number of embedding cache hits.",
	})

	// EmbeddingCacheMisses counts embedding cache misses
	EmbeddingCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qanoonhub_embedding_cache_misses_total",
		Help: "Total number of embedding cache misses.",
	})
)

func init() {
	prometheus.MustRegister(
		SearchRequests,
		SearchDegraded,
		DocumentsIngested,
		RecordsFailed,
		VectorsEmbedded,
		EmbeddingCacheHits,
		EmbeddingCacheMisses,
	)
}
