package models

// Chunk is a unit of indexed text. IDs are assigned at ingestion time and
// chunks are immutable once written to the index.
type Chunk struct {
	ID     string
	Text   string
	Source string
	Page   *int // 1-based page number; nil when the format has no pages
}

// RetrievedBlock is a read-time projection of an indexed chunk. Score is the
// cosine distance to the query, lower is more relevant, 0 is identical.
type RetrievedBlock struct {
	ID     string
	Text   string
	Source string
	Page   *int
	Score  float64
}

// Citation points back at a retrieved block the model cited with [n].
type Citation struct {
	Source  string   `json:"source"`
	Page    *int     `json:"page,omitempty"`
	ChunkID string   `json:"chunk_id"`
	Score   *float64 `json:"score,omitempty"`
}

// Answer is the terminal output of the retrieval pipeline. Answer is
// Markdown and may contain bracketed [n] citation markers. Confidence is
// only set by the empty-context short circuit.
type Answer struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence *float64   `json:"confidence,omitempty"`
}
