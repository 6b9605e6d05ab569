package rewrite

import (
	"fmt"
	"strings"

	"github.com/T-rav/hydra/internal/retrieval"
)

const classifyPrompt = `You classify search queries for a workspace knowledge base.

Return a single JSON object, nothing else:
{
  "type": "team_allocation" | "project_info" | "client_info" | "document_search" | "general",
  "entities": ["named people, projects, clients, or documents in the query"],
  "time_range": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"} or null,
  "confidence": 0.0 to 1.0
}

Types:
- team_allocation: who is staffed on what, availability, capacity
- project_info: status, scope, budget, or timeline of a project
- client_info: details about a client or account
- document_search: the user wants a specific document or file
- general: anything else

%sQuery: %s`

const hydePrompt = `Write a short factual passage (2-3 sentences) that would answer the
question below, as it might appear in a staffing or allocation record.
Use plausible placeholder names where facts are unknown. Output only the
passage.

Question: %s`

// buildClassifyPrompt renders the classification prompt with the last
// maxTurns conversation turns prepended for pronoun and follow-up
// resolution. Older turns add tokens without improving intent accuracy.
func buildClassifyPrompt(query string, history []retrieval.Message, maxTurns int) string {
	var ctx string
	if len(history) > 0 && maxTurns > 0 {
		turns := history
		if len(turns) > maxTurns {
			turns = turns[len(turns)-maxTurns:]
		}
		var b strings.Builder
		b.WriteString("Recent conversation:\n")
		for _, m := range turns {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
		ctx = b.String()
	}
	return fmt.Sprintf(classifyPrompt, ctx, query)
}
