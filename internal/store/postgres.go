package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            string  `bun:"id,pk"`
	Collection    string  `bun:"collection,notnull"`
	Content       string  `bun:"content,notnull"`
	Source        string  `bun:"source,notnull"`
	Page          *int    `bun:"page"`
	Embedding     string  `bun:"embedding,notnull"` // pgvector literal, e.g. [0.1,0.2]
	Distance      float64 `bun:"distance,scanonly"`
}

// PostgresEngine stores records in a pgvector-enabled Postgres table, with a
// collection column standing in for named collections.
type PostgresEngine struct {
	db   *bun.DB
	name string
}

// NewPostgresEngine connects to dsn, ensures the chunks table exists with an
// embedding column of the given dimension, and scopes all operations to the
// named collection.
func NewPostgresEngine(ctx context.Context, dsn, collection string, vectorSize int, debug bool) (*PostgresEngine, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("enabling pgvector: %v", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
		id text PRIMARY KEY,
		collection text NOT NULL,
		content text NOT NULL,
		source text NOT NULL,
		page integer,
		embedding vector(%d) NOT NULL
	)`, vectorSize)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating chunks table: %v", err)
	}

	return &PostgresEngine{db: db, name: collection}, nil
}

// Close releases the underlying connection pool.
func (e *PostgresEngine) Close() error {
	return e.db.Close()
}

func (e *PostgresEngine) Reset(ctx context.Context) error {
	_, err := e.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("collection = ?", e.name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("resetting collection %s: %v", e.name, err)
	}
	return nil
}

func (e *PostgresEngine) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, r := range records {
		rows[i] = chunkRow{
			ID:         r.ID,
			Collection: e.name,
			Content:    r.Text,
			Source:     r.Source,
			Page:       r.Page,
			Embedding:  vectorLiteral(r.Embedding),
		}
	}
	_, err := e.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content, source = EXCLUDED.source, page = EXCLUDED.page, embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("inserting %d chunks: %v", len(records), err)
	}
	return nil
}

func (e *PostgresEngine) Query(ctx context.Context, embedding []float32, n int) ([]Hit, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []chunkRow
	err := e.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.id, c.content, c.source, c.page").
		ColumnExpr("c.embedding <=> ?::vector AS distance", vectorLiteral(embedding)).
		Where("c.collection = ?", e.name).
		OrderExpr("distance ASC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %v", e.name, err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, Hit{
			ID:       r.ID,
			Text:     r.Content,
			Source:   r.Source,
			Page:     r.Page,
			Distance: r.Distance,
		})
	}
	return hits, nil
}

func (e *PostgresEngine) Get(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var rows []chunkRow
	err := e.db.NewSelect().
		Model(&rows).
		Column("id", "content").
		Where("collection = ?", e.name).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %d chunks: %v", len(ids), err)
	}
	texts := make(map[string]string, len(rows))
	for _, r := range rows {
		texts[r.ID] = r.Content
	}
	return texts, nil
}

func (e *PostgresEngine) Count(ctx context.Context) (int, error) {
	return e.db.NewSelect().
		Model((*chunkRow)(nil)).
		Where("collection = ?", e.name).
		Count(ctx)
}

// vectorLiteral renders an embedding as a pgvector input literal.
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
