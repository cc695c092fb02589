package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *ChromemEngine {
	t.Helper()
	engine, err := NewChromemEngine("", "test_collection")
	require.NoError(t, err)
	return engine
}

func seedRecords() []Record {
	return []Record{
		{ID: "a", Text: "alpha", Source: "doc.pdf", Page: pg(1), Embedding: []float32{1, 0, 0}},
		{ID: "b", Text: "bravo", Source: "doc.pdf", Page: pg(2), Embedding: []float32{0, 1, 0}},
		{ID: "c", Text: "charlie", Source: "doc.pdf", Embedding: []float32{0, 0, 1}},
	}
}

func TestChromemEngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	require.NoError(t, engine.Add(ctx, seedRecords()))

	n, err := engine.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := engine.Query(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// The identical vector comes back first with distance ~0.
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-5)
	assert.Equal(t, "alpha", hits[0].Text)
	assert.Equal(t, "doc.pdf", hits[0].Source)
	require.NotNil(t, hits[0].Page)
	assert.Equal(t, 1, *hits[0].Page)

	// Orthogonal vectors sit at distance ~1.
	assert.InDelta(t, 1, hits[1].Distance, 1e-5)
}

func TestChromemEngineClampsOverFetch(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	require.NoError(t, engine.Add(ctx, seedRecords()))

	// Asking for more neighbours than stored records must not error.
	hits, err := engine.Query(ctx, []float32{1, 0, 0}, 20)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestChromemEngineNilPageSurvivesStorage(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	require.NoError(t, engine.Add(ctx, seedRecords()))

	hits, err := engine.Query(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c", hits[0].ID)
	assert.Nil(t, hits[0].Page)
}

func TestChromemEngineResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	require.NoError(t, engine.Add(ctx, seedRecords()))

	require.NoError(t, engine.Reset(ctx))
	n, err := engine.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Resetting an already-empty collection is not an error.
	require.NoError(t, engine.Reset(ctx))
	n, err = engine.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The engine stays usable after a reset.
	require.NoError(t, engine.Add(ctx, seedRecords()[:1]))
	n, err = engine.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChromemEngineGetOmitsMissingIDs(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	require.NoError(t, engine.Add(ctx, seedRecords()))

	texts, err := engine.Get(ctx, []string{"a", "nope", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "alpha", "c": "charlie"}, texts)
}

func TestChromemEngineQueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	hits, err := engine.Query(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
