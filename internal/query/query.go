// Package query answers natural-language questions over the vector index:
// intent detection, retrieval, prompt construction and citation alignment.
package query

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/llm"
	"pdf-rag/internal/models"
	"pdf-rag/internal/store"
)

const (
	// Summary-like questions pull more context and loosen the distance
	// filter, trading precision for coverage.
	summaryTopK        = 10
	summaryMaxDistance = 1.2
)

var summaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsummar(y|ise|ize)\b`),
	regexp.MustCompile(`\boverview\b`),
	regexp.MustCompile(`\bwhat('s| is) this (pdf|document) (about)\b`),
	regexp.MustCompile(`\btl;dr\b`),
	regexp.MustCompile(`\bhigh-level\b`),
	regexp.MustCompile(`\babstract\b`),
}

var markerRe = regexp.MustCompile(`\[(\d+)\]`)

// IsSummaryLike heuristically classifies a question as requesting broad
// document coverage rather than a narrow fact.
func IsSummaryLike(question string) bool {
	q := strings.ToLower(question)
	for _, p := range summaryPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

// MarkersUsed returns the distinct bracketed [n] markers in order of first
// appearance. Repeated markers do not duplicate.
func MarkersUsed(answer string) []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range markerRe.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Retriever is the read side of the vector index.
type Retriever interface {
	Query(ctx context.Context, text string, opts store.QueryOptions) ([]models.RetrievedBlock, error)
}

// Service runs the retrieval-and-answer pipeline.
type Service struct {
	retriever Retriever
	model     llm.Model
	cfg       *config.RAGConfig
}

func NewService(retriever Retriever, model llm.Model, cfg *config.RAGConfig) *Service {
	return &Service{retriever: retriever, model: model, cfg: cfg}
}

// Options overrides per-question retrieval knobs; zero values fall back to
// the configured defaults.
type Options struct {
	TopK         int
	MinRelevance *float64
}

// Ask retrieves context for the question, prompts the model and aligns the
// model's [n] markers back to citations. When retrieval comes back empty the
// fixed guidance answer is returned without a model call.
func (s *Service) Ask(ctx context.Context, question string, opts Options) (*models.Answer, error) {
	k := opts.TopK
	if k <= 0 {
		k = s.cfg.TopK
	}
	minRelevance := opts.MinRelevance
	if minRelevance == nil {
		minRelevance = s.cfg.MinRelevance
	}

	if IsSummaryLike(question) {
		if k < summaryTopK {
			k = summaryTopK
		}
		floor := 1.0
		if minRelevance != nil {
			floor = *minRelevance
		}
		widened := math.Max(floor, summaryMaxDistance)
		minRelevance = &widened
		log.Debug().Int("k", k).Float64("max_distance", widened).
			Msg("summary-like question, widening retrieval")
	}

	blocks, err := s.retriever.Query(ctx, question, store.QueryOptions{
		K:            k,
		MinRelevance: minRelevance,
		Diversify:    true,
		PerPageCap:   s.cfg.PerPageCap,
	})
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		confidence := 0.0
		return &models.Answer{
			Answer:     models.NoContextAnswer,
			Citations:  []models.Citation{},
			Confidence: &confidence,
		}, nil
	}

	prompt := BuildPrompt(blocks, question)
	raw, err := s.model.Generate(ctx, prompt, s.cfg.MaxTokens, s.cfg.Temperature)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Answer:    raw,
		Citations: alignCitations(raw, blocks),
	}, nil
}

// alignCitations maps in-range markers to their context blocks, in first-
// appearance order. Out-of-range markers are silently ignored; zero valid
// markers yields an empty citation list even when context existed.
func alignCitations(answer string, blocks []models.RetrievedBlock) []models.Citation {
	citations := []models.Citation{}
	for _, n := range MarkersUsed(answer) {
		if n < 1 || n > len(blocks) {
			continue
		}
		b := blocks[n-1]
		score := b.Score
		citations = append(citations, models.Citation{
			Source:  b.Source,
			Page:    b.Page,
			ChunkID: b.ID,
			Score:   &score,
		})
	}
	return citations
}
