// Package store provides the vector index: durable storage engines plus the
// distance-ranked query pipeline with relevance filtering and
// page-diversification.
package store

import "context"

// Record is a chunk plus its embedding, as written to an engine. The
// embedding is computed once at write time.
type Record struct {
	ID        string
	Text      string
	Source    string
	Page      *int
	Embedding []float32
}

// Hit is a raw nearest-neighbour result in cosine-distance space
// (lower = more relevant, 0 = identical).
type Hit struct {
	ID       string
	Text     string
	Source   string
	Page     *int
	Distance float64
}

// Engine is a named collection of records in a persistent index. Engines
// only do storage and raw nearest-neighbour search; filtering and
// diversification live in Index.
type Engine interface {
	// Reset deletes all records in the collection, recreating it empty.
	// Resetting a collection that does not exist is not an error.
	Reset(ctx context.Context) error
	// Add writes records with precomputed embeddings.
	Add(ctx context.Context, records []Record) error
	// Query returns up to n nearest neighbours by cosine distance.
	Query(ctx context.Context, embedding []float32, n int) ([]Hit, error)
	// Get returns chunk text by id, covering only the ids found.
	Get(ctx context.Context, ids []string) (map[string]string, error)
	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)
}
