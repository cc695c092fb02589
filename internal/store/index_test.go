package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

type fakeEmbedder struct {
	docCalls   [][]string
	queryCalls []string
	failDocs   bool
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.docCalls = append(f.docCalls, texts)
	if f.failDocs {
		return nil, errors.New("quota exceeded")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls = append(f.queryCalls, text)
	return []float32{1, 0, 0}, nil
}

type fakeEngine struct {
	hits     []Hit
	added    []Record
	queryN   []int
	countErr error
	getErr   error
	count    int
}

func (f *fakeEngine) Reset(ctx context.Context) error { return nil }

func (f *fakeEngine) Add(ctx context.Context, records []Record) error {
	f.added = append(f.added, records...)
	return nil
}

func (f *fakeEngine) Query(ctx context.Context, embedding []float32, n int) ([]Hit, error) {
	f.queryN = append(f.queryN, n)
	if n > len(f.hits) {
		n = len(f.hits)
	}
	return f.hits[:n], nil
}

func (f *fakeEngine) Get(ctx context.Context, ids []string) (map[string]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return map[string]string{}, nil
}

func (f *fakeEngine) Count(ctx context.Context) (int, error) {
	return f.count, f.countErr
}

func pg(n int) *int { return &n }

func hitsAcrossPages(perPage map[int]int) []Hit {
	var hits []Hit
	dist := 0.10
	for page := 1; page <= 3; page++ {
		for i := 0; i < perPage[page]; i++ {
			hits = append(hits, Hit{
				ID:       fmt.Sprintf("p%d-%d", page, i),
				Text:     fmt.Sprintf("text %d/%d", page, i),
				Source:   "doc.pdf",
				Page:     pg(page),
				Distance: dist,
			})
			dist += 0.01
		}
	}
	return hits
}

func TestQueryDiversifiesAcrossPages(t *testing.T) {
	engine := &fakeEngine{hits: hitsAcrossPages(map[int]int{1: 4, 2: 4, 3: 2})}
	ix := NewIndex(engine, &fakeEmbedder{})

	blocks, err := ix.Query(context.Background(), "q", QueryOptions{K: 5, Diversify: true, PerPageCap: 2})

	require.NoError(t, err)
	require.Len(t, blocks, 5)

	perPage := map[int]int{}
	for _, b := range blocks {
		require.NotNil(t, b.Page)
		perPage[*b.Page]++
	}
	// Every page contributes and no page exceeds its cap.
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1}, perPage)
	// First pass takes the best block of each page in page order.
	assert.Equal(t, 1, *blocks[0].Page)
	assert.Equal(t, 2, *blocks[1].Page)
	assert.Equal(t, 3, *blocks[2].Page)
}

func TestQueryDiversifyExhaustedPagesDoNotStall(t *testing.T) {
	engine := &fakeEngine{hits: hitsAcrossPages(map[int]int{1: 4})}
	ix := NewIndex(engine, &fakeEmbedder{})

	blocks, err := ix.Query(context.Background(), "q", QueryOptions{K: 5, Diversify: true, PerPageCap: 2})

	require.NoError(t, err)
	// Only one page exists, so the cap bounds the result below k.
	assert.Len(t, blocks, 2)
}

func TestQueryNilPageGroupSortsLast(t *testing.T) {
	engine := &fakeEngine{hits: []Hit{
		{ID: "a", Page: nil, Distance: 0.01},
		{ID: "b", Page: pg(2), Distance: 0.05},
		{ID: "c", Page: pg(1), Distance: 0.09},
	}}
	ix := NewIndex(engine, &fakeEmbedder{})

	blocks, err := ix.Query(context.Background(), "q", QueryOptions{K: 3, Diversify: true})

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "c", blocks[0].ID) // page 1
	assert.Equal(t, "b", blocks[1].ID) // page 2
	assert.Equal(t, "a", blocks[2].ID) // unknown page last
}

func TestQueryMinRelevanceFilter(t *testing.T) {
	engine := &fakeEngine{hits: []Hit{
		{ID: "near", Page: pg(1), Distance: 0.2},
		{ID: "edge", Page: pg(2), Distance: 0.5},
		{ID: "far", Page: pg(3), Distance: 0.8},
	}}
	ix := NewIndex(engine, &fakeEmbedder{})
	maxDist := 0.5

	blocks, err := ix.Query(context.Background(), "q", QueryOptions{K: 5, MinRelevance: &maxDist})

	require.NoError(t, err)
	require.Len(t, blocks, 2)
	// Strictly-greater distances are dropped; equal passes.
	assert.Equal(t, "near", blocks[0].ID)
	assert.Equal(t, "edge", blocks[1].ID)
}

func TestQueryWithoutDiversificationReturnsTopKByDistance(t *testing.T) {
	engine := &fakeEngine{hits: []Hit{
		{ID: "c", Page: pg(1), Distance: 0.3},
		{ID: "a", Page: pg(1), Distance: 0.1},
		{ID: "b", Page: pg(1), Distance: 0.2},
	}}
	ix := NewIndex(engine, &fakeEmbedder{})

	blocks, err := ix.Query(context.Background(), "q", QueryOptions{K: 2})

	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "a", blocks[0].ID)
	assert.Equal(t, "b", blocks[1].ID)
}

func TestQueryOverFetchesFourTimesK(t *testing.T) {
	engine := &fakeEngine{}
	ix := NewIndex(engine, &fakeEmbedder{})

	_, err := ix.Query(context.Background(), "q", QueryOptions{K: 5})

	require.NoError(t, err)
	require.Equal(t, []int{20}, engine.queryN)
}

func TestUpsertEmbedsOnceAndWritesRecords(t *testing.T) {
	engine := &fakeEngine{}
	embedder := &fakeEmbedder{}
	ix := NewIndex(engine, embedder)

	chunks := []models.Chunk{
		{ID: "c1", Text: "first", Source: "doc.pdf", Page: pg(1)},
		{ID: "c2", Text: "second", Source: "doc.pdf", Page: pg(2)},
	}
	require.NoError(t, ix.Upsert(context.Background(), chunks))

	require.Len(t, embedder.docCalls, 1)
	assert.Equal(t, []string{"first", "second"}, embedder.docCalls[0])
	require.Len(t, engine.added, 2)
	assert.Equal(t, "c1", engine.added[0].ID)
	assert.NotEmpty(t, engine.added[0].Embedding)
}

func TestUpsertAbortsOnEmbeddingFailure(t *testing.T) {
	engine := &fakeEngine{}
	ix := NewIndex(engine, &fakeEmbedder{failDocs: true})

	err := ix.Upsert(context.Background(), []models.Chunk{{ID: "c1", Text: "first"}})

	require.Error(t, err)
	assert.Empty(t, engine.added)
}

func TestCountSwallowsEngineErrors(t *testing.T) {
	ix := NewIndex(&fakeEngine{count: 7, countErr: errors.New("backend down")}, &fakeEmbedder{})

	assert.Equal(t, 0, ix.Count(context.Background()))

	ix = NewIndex(&fakeEngine{count: 7}, &fakeEmbedder{})
	assert.Equal(t, 7, ix.Count(context.Background()))
}

func TestFetchTextsSwallowsEngineErrors(t *testing.T) {
	ix := NewIndex(&fakeEngine{getErr: errors.New("backend down")}, &fakeEmbedder{})

	assert.Empty(t, ix.FetchTexts(context.Background(), []string{"a"}))
}
