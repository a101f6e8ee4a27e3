package citation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"rag-chatbot/internal/models"
)

// Inline citation markers the model emits. The exact form matches a full
// doc:span reference; the loose form additionally catches malformed
// citations the model sometimes produces.
// TODO: the loose pattern also strips legitimate bracketed text containing
// ".pdf"; tighten once the model stops emitting malformed citations.
var (
	exactMarkerRe = regexp.MustCompile(`\[[^\[\]]*\.pdf:\d+-\d+\]`)
	looseMarkerRe = regexp.MustCompile(`\[[^\[\]]*\.pdf[^\[\]]*\]`)
)

// Format appends a numbered, deduplicated References section derived from
// the chunks actually used. Label order follows chunk order. With no
// chunks the trimmed answer is returned unchanged.
func Format(answerText string, sources []models.Result) string {
	answer := strings.TrimSpace(answerText)

	var refs []string
	seen := make(map[string]struct{})
	for _, src := range sources {
		label := Label(src.Metadata)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		refs = append(refs, label)
	}
	if len(refs) == 0 {
		return answer
	}

	var sb strings.Builder
	sb.WriteString(answer)
	sb.WriteString("\n\nReferences:\n")
	for i, ref := range refs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, ref)
	}
	return sb.String()
}

// Label renders one reference as "<basename>:<start>-<end>", or just the
// basename when the span is unavailable.
func Label(meta models.Metadata) string {
	base := filepath.Base(meta.DocID)
	if meta.Start == 0 && meta.End == 0 {
		return base
	}
	return fmt.Sprintf("%s:%d-%d", base, meta.Start, meta.End)
}

// Strip removes inline bracketed citation markers from model output, for
// callers that need a citation-free answer.
func Strip(text string) string {
	out := exactMarkerRe.ReplaceAllString(text, "")
	out = looseMarkerRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
