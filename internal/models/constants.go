package models

var (
	// PromptTemplate takes the numbered CONTEXT section and the user
	// question. The model is restricted to the supplied blocks and must cite
	// them with bracketed indices.
	PromptTemplate = `You are a careful assistant performing Retrieval-Augmented Generation (RAG).

RULES
- Use ONLY the CONTEXT blocks below. Do not invent facts.
- If the context is insufficient to answer, say so clearly.
- Prefer comprehensive coverage over focusing on a single snippet.
- Cite using bracketed indices like [1], [2], referring to the CONTEXT blocks used.
- Answer in clear, concise **Markdown** (no JSON in the final answer).

CONTEXT
%s

USER QUESTION
%s

REPLY
Write the answer in Markdown with [n] citations where appropriate.
`

	// NoContextAnswer is returned without calling the model when retrieval
	// comes back empty.
	NoContextAnswer = "I couldn't retrieve any relevant context from your indexed documents. " +
		"Please confirm the documents were ingested, the **collection** is correct, " +
		"and try increasing **Top-K** or raising **Min relevance (max distance)**."
)
