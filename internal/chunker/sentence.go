package chunker

import (
	"regexp"
	"strings"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// splitSentences splits text at sentence-ending punctuation. A trailing
// fragment without terminal punctuation still counts as a sentence.
func splitSentences(text string) []string {
	var sents []string
	last := 0
	for _, ix := range sentenceRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[ix[0]:ix[1]]); s != "" {
			sents = append(sents, s)
		}
		last = ix[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sents = append(sents, tail)
	}
	return sents
}

// SentenceChunk greedily packs consecutive sentences into chunks of at most
// size characters, then prepends to each chunk (except the first) the
// trailing overlap characters of the previous chunk. The overlap is taken
// from the packed chunks before any overlap was applied, so it does not
// compound across chunks. Degenerate overlap values (negative, or >= size)
// disable the overlap. Empty or whitespace-only input yields no chunks.
func SentenceChunk(text string, size, overlap int) []string {
	sents := splitSentences(text)
	if len(sents) == 0 {
		return nil
	}

	var chunks []string
	cur := ""
	for _, s := range sents {
		if runeLen(cur)+runeLen(s)+1 <= size {
			if cur == "" {
				cur = s
			} else {
				cur += " " + s
			}
		} else {
			if cur != "" {
				chunks = append(chunks, cur)
			}
			cur = s
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}

	if overlap <= 0 || overlap >= size || len(chunks) < 2 {
		return chunks
	}

	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		out[i] = tailRunes(chunks[i-1], overlap) + chunks[i]
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

// tailRunes returns the last n characters of s, or all of s when shorter.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
