package query

import (
	"fmt"
	"strconv"
	"strings"

	"pdf-rag/internal/models"
)

// BuildPrompt enumerates the retrieved blocks as [1]..[k] in the order they
// were selected and embeds them as the CONTEXT section of the fixed
// instruction template. The model cites blocks by these indices.
func BuildPrompt(blocks []models.RetrievedBlock, question string) string {
	numbered := make([]string, len(blocks))
	for i, b := range blocks {
		page := "none"
		if b.Page != nil {
			page = strconv.Itoa(*b.Page)
		}
		header := fmt.Sprintf("[%d] (source: %s, page: %s, id: %s, score: %.4f)",
			i+1, b.Source, page, b.ID, b.Score)
		numbered[i] = header + "\n" + b.Text
	}
	return fmt.Sprintf(models.PromptTemplate, strings.Join(numbered, "\n\n"), question)
}
