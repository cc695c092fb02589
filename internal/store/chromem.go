package store

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

// ChromemEngine stores records in an embedded chromem-go database, persisted
// under a directory per index. chromem reports cosine similarity; it is
// converted to cosine distance (1 - similarity) at this boundary so the rest
// of the pipeline works in a single score domain.
type ChromemEngine struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemEngine opens (or creates) the persistent database at path and
// binds the named collection. An empty path yields an in-memory database.
func NewChromemEngine(path, collection string) (*ChromemEngine, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database: %v", err)
		}
	}

	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %v", collection, err)
	}

	return &ChromemEngine{db: db, collection: col, name: collection}, nil
}

func (e *ChromemEngine) Reset(ctx context.Context) error {
	// chromem treats deleting an absent collection as a no-op, which is the
	// idempotency this contract wants.
	if err := e.db.DeleteCollection(e.name); err != nil {
		return fmt.Errorf("deleting collection %s: %v", e.name, err)
	}
	col, err := e.db.GetOrCreateCollection(e.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %v", e.name, err)
	}
	e.collection = col
	return nil
}

func (e *ChromemEngine) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		meta := map[string]string{"source": r.Source}
		if r.Page != nil {
			meta["page"] = strconv.Itoa(*r.Page)
		}
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Metadata:  meta,
			Embedding: r.Embedding,
		}
	}
	if err := e.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding %d documents: %v", len(docs), err)
	}
	return nil
}

func (e *ChromemEngine) Query(ctx context.Context, embedding []float32, n int) ([]Hit, error) {
	// chromem rejects nResults larger than the collection, so clamp.
	if count := e.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}
	results, err := e.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %v", e.name, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:       r.ID,
			Text:     r.Content,
			Source:   r.Metadata["source"],
			Page:     pageFromMetadata(r.Metadata),
			Distance: 1 - float64(r.Similarity),
		})
	}
	return hits, nil
}

func (e *ChromemEngine) Get(ctx context.Context, ids []string) (map[string]string, error) {
	texts := make(map[string]string, len(ids))
	for _, id := range ids {
		doc, err := e.collection.GetByID(ctx, id)
		if err != nil {
			// Missing ids are silently omitted.
			continue
		}
		texts[doc.ID] = doc.Content
	}
	return texts, nil
}

func (e *ChromemEngine) Count(ctx context.Context) (int, error) {
	return e.collection.Count(), nil
}

func pageFromMetadata(meta map[string]string) *int {
	raw, ok := meta["page"]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
