// Package ingest orchestrates document → page → chunk → embed → upsert.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/store"
)

// Source loads one input file into (page, text) pairs.
type Source interface {
	Load(path string) (*parser.Document, error)
}

// FileSource parses real files by extension.
type FileSource struct{}

func (FileSource) Load(path string) (*parser.Document, error) {
	return parser.Load(path)
}

// Pipeline writes chunked documents into a vector index.
type Pipeline struct {
	index  *store.Index
	chunk  chunker.Func
	source Source
}

// NewPipeline wires a pipeline; a nil source defaults to FileSource.
func NewPipeline(index *store.Index, chunk chunker.Func, source Source) *Pipeline {
	if source == nil {
		source = FileSource{}
	}
	return &Pipeline{index: index, chunk: chunk, source: source}
}

// Run ingests the given files and returns the number of chunks written.
// A missing input file fails before any embedding call is made. Zero chunks
// (for example, all pages image-only) is a legitimate outcome reported as a
// count of 0, not an error.
func (p *Pipeline) Run(ctx context.Context, paths []string, reset bool) (int, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return 0, fmt.Errorf("file not found: %s", path)
		}
	}

	if reset {
		log.Info().Msg("resetting collection")
		if err := p.index.Reset(ctx); err != nil {
			return 0, err
		}
	}

	var chunks []models.Chunk
	for _, path := range paths {
		doc, err := p.source.Load(path)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", path, err)
		}
		before := len(chunks)
		for _, page := range doc.Pages {
			text := strings.TrimSpace(page.Text)
			if text == "" {
				// Likely a scanned page.
				continue
			}
			var pageNum *int
			if page.Number > 0 {
				n := page.Number
				pageNum = &n
			}
			for _, c := range p.chunk(text) {
				c = strings.TrimSpace(c)
				if c == "" {
					continue
				}
				chunks = append(chunks, models.Chunk{
					ID:     uuid.NewString(),
					Text:   c,
					Source: doc.Name,
					Page:   pageNum,
				})
			}
		}
		log.Debug().Str("file", doc.Name).Int("pages", len(doc.Pages)).
			Int("chunks", len(chunks)-before).Msg("chunked document")
	}

	if len(chunks) == 0 {
		log.Warn().Msg("no text chunks produced; are the documents scanned (image-only)?")
		return 0, nil
	}

	log.Info().Int("chunks", len(chunks)).Msg("writing chunks to index")
	if err := p.index.Upsert(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
