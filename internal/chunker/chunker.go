// Package chunker splits page text into overlapping segments ready for
// embedding. Two interchangeable strategies are provided: sentence packing
// and fixed-size token windows.
package chunker

import "fmt"

// Func splits text into an ordered sequence of chunk strings.
type Func func(text string) []string

// New returns the named strategy bound to the given size and overlap.
// Size is measured in characters for the sentence strategy and in
// cl100k_base tokens for the token strategy.
func New(name string, size, overlap int) (Func, error) {
	switch name {
	case "", "sentence":
		return func(text string) []string {
			return SentenceChunk(text, size, overlap)
		}, nil
	case "token":
		tok, err := NewTiktokenizer()
		if err != nil {
			return nil, fmt.Errorf("loading cl100k_base tokenizer: %w", err)
		}
		return func(text string) []string {
			return TokenChunk(tok, text, size, overlap)
		}, nil
	default:
		return nil, fmt.Errorf("unknown chunker %q", name)
	}
}
