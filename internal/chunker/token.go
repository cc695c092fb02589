package chunker

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text into subword token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenizer returns a Tokenizer backed by OpenAI's cl100k_base
// vocabulary, a practical default for mixed English text.
func NewTiktokenizer() (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &tiktokenizer{enc: enc}, nil
}

func (t *tiktokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// TokenChunk slides a window of size tokens across the token sequence,
// advancing the start by size-overlap each step so consecutive windows share
// exactly overlap tokens (except possibly the last, shorter window).
// Degenerate overlap values (negative, or >= size) disable the overlap,
// which also guarantees the window start always advances.
func TokenChunk(tok Tokenizer, text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	toks := tok.Encode(text)
	step := size - overlap

	var out []string
	for start := 0; start < len(toks); start += step {
		end := start + size
		if end > len(toks) {
			end = len(toks)
		}
		out = append(out, tok.Decode(toks[start:end]))
	}
	return out
}
