package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"rag-chatbot/internal/models"
)

const systemTemplate = `You are a helpful AI assistant that answers user questions based only on the provided document chunks.

Chunks:
{{- range .Chunks }}
- Document ID: {{ .DocID }}, Span: {{ .Start }}-{{ .End }}
  Content: {{ .Text }}
{{- end }}

Instructions:
- Use ONLY the information from the chunks to answer the question.
- Cite each fact by referencing the document ID and span in square brackets, e.g. [doc123:10-50].
- If the chunks do NOT contain the answer, respond: "I don't know based on the provided documents."
- Keep your answer concise, factual, and clear.
- Do NOT include any information not found in the chunks.
- If chunks contain contradictory information, mention that and cite all relevant chunks.

Question: {{ .Query }}
Answer succinctly and cite chunk metadata.
`

var tpl = template.Must(template.New("system").Parse(systemTemplate))

type chunkView struct {
	DocID string
	Start int
	End   int
	Text  string
}

// Builder renders retrieved chunks and the question into the instruction
// template sent as the system message. Rendering is deterministic: the
// same chunks and query always produce the same string.
type Builder struct {
	maxChunkChars int
}

func NewBuilder(maxChunkChars int) *Builder {
	if maxChunkChars <= 0 {
		maxChunkChars = models.DefaultMaxChunkChars
	}
	return &Builder{maxChunkChars: maxChunkChars}
}

// Build renders the prompt. Chunk texts beyond the character budget are
// cut and marked with an ellipsis.
func (b *Builder) Build(chunks []models.Result, query string) (string, error) {
	views := make([]chunkView, len(chunks))
	for i, c := range chunks {
		views[i] = chunkView{
			DocID: c.Metadata.DocID,
			Start: c.Metadata.Start,
			End:   c.Metadata.End,
			Text:  truncate(c.Text, b.maxChunkChars),
		}
	}
	var sb strings.Builder
	err := tpl.Execute(&sb, struct {
		Chunks []chunkView
		Query  string
	}{Chunks: views, Query: query})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
