package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
)

const (
	defaultTopK       = 5
	defaultPerPageCap = 2
	overFetchFactor   = 4
)

// Index ties an Engine to an Embedder and implements the retrieval
// contract: embed, over-fetch, filter by relevance, diversify by page.
type Index struct {
	engine   Engine
	embedder embedding.Embedder
}

func NewIndex(engine Engine, embedder embedding.Embedder) *Index {
	return &Index{engine: engine, embedder: embedder}
}

// QueryOptions controls a single retrieval.
type QueryOptions struct {
	K            int
	MinRelevance *float64 // max cosine distance; nil disables the filter
	Diversify    bool
	PerPageCap   int
}

// Reset empties the collection. Idempotent.
func (ix *Index) Reset(ctx context.Context) error {
	return ix.engine.Reset(ctx)
}

// Count is a best-effort read: an unreadable collection counts as empty.
func (ix *Index) Count(ctx context.Context) int {
	n, err := ix.engine.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("counting collection failed, reporting 0")
		return 0
	}
	return n
}

// Upsert embeds the chunks in document mode and writes them to the engine.
// A failed embedding call aborts the whole batch.
func (ix *Index) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{
			ID:        c.ID,
			Text:      c.Text,
			Source:    c.Source,
			Page:      c.Page,
			Embedding: vectors[i],
		}
	}
	return ix.engine.Add(ctx, records)
}

// Query embeds text in query mode, over-fetches max(4k, k) neighbours,
// drops hits whose distance exceeds MinRelevance, sorts ascending by
// distance and either round-robins across pages or takes the plain top k.
// The returned order is the selection order, which under diversification is
// not pure distance order.
func (ix *Index) Query(ctx context.Context, text string, opts QueryOptions) ([]models.RetrievedBlock, error) {
	k := opts.K
	if k <= 0 {
		k = defaultTopK
	}
	perPageCap := opts.PerPageCap
	if perPageCap <= 0 {
		perPageCap = defaultPerPageCap
	}

	vector, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	n := overFetchFactor * k
	if n < k {
		n = k
	}
	hits, err := ix.engine.Query(ctx, vector, n)
	if err != nil {
		return nil, err
	}

	blocks := make([]models.RetrievedBlock, 0, len(hits))
	for _, h := range hits {
		if opts.MinRelevance != nil && h.Distance > *opts.MinRelevance {
			continue
		}
		blocks = append(blocks, models.RetrievedBlock{
			ID:     h.ID,
			Text:   h.Text,
			Source: h.Source,
			Page:   h.Page,
			Score:  h.Distance,
		})
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Score < blocks[j].Score })

	if opts.Diversify && len(blocks) > 0 {
		return diversifyByPage(blocks, k, perPageCap), nil
	}
	if len(blocks) > k {
		blocks = blocks[:k]
	}
	return blocks, nil
}

// FetchTexts is a best-effort batch lookup of chunk text by id. Missing ids
// are silently omitted.
func (ix *Index) FetchTexts(ctx context.Context, ids []string) map[string]string {
	if len(ids) == 0 {
		return map[string]string{}
	}
	texts, err := ix.engine.Get(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("fetching chunk texts failed, reporting none")
		return map[string]string{}
	}
	return texts
}

type pageKey struct {
	known bool
	page  int
}

// diversifyByPage selects up to k blocks round-robin across pages: one
// best-remaining block per page per pass, in ascending page order with
// unknown pages last, skipping pages that reached perPageCap. A pass that
// selects nothing ends the loop, so exhausted buckets cannot stall it.
func diversifyByPage(blocks []models.RetrievedBlock, k, perPageCap int) []models.RetrievedBlock {
	buckets := map[pageKey][]models.RetrievedBlock{}
	var order []pageKey
	for _, b := range blocks {
		key := pageKey{}
		if b.Page != nil {
			key = pageKey{known: true, page: *b.Page}
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		// Input is distance-sorted, so each bucket stays sorted too.
		buckets[key] = append(buckets[key], b)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.known != b.known {
			return a.known
		}
		return a.page < b.page
	})

	taken := map[pageKey]int{}
	selected := make([]models.RetrievedBlock, 0, k)
	for len(selected) < k {
		progressed := false
		for _, key := range order {
			bucket := buckets[key]
			if len(bucket) == 0 || taken[key] >= perPageCap {
				continue
			}
			selected = append(selected, bucket[0])
			buckets[key] = bucket[1:]
			taken[key]++
			progressed = true
			if len(selected) >= k {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return selected
}
