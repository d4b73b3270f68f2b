package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildFindPassagePrompt asks the model to locate a passage supporting the
// citation inside the excerpt, answering strict JSON so the caller can
// validate the snippet against the document verbatim.
func BuildFindPassagePrompt(citation, excerpt string) string {
	var b strings.Builder
	b.WriteString("You are verifying a citation against a source document.\n")
	b.WriteString("Find the passage in the EXCERPT below that supports the CITATION, if any.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- The snippet must be copied VERBATIM from the excerpt, character for character.\n")
	b.WriteString("- Keep the snippet short: the single most relevant sentence or clause.\n")
	b.WriteString("- If no passage in the excerpt supports the citation, report found=false.\n")
	b.WriteString("- Answer with JSON only, no prose: {\"found\": bool, \"snippet\": string}\n\n")
	fmt.Fprintf(&b, "CITATION:\n%s\n\nEXCERPT:\n%s\n", citation, excerpt)
	return b.String()
}

// PassageAnswer is the JSON shape every provider asks the model for.
type PassageAnswer struct {
	Found   bool   `json:"found"`
	Snippet string `json:"snippet"`
}

// ParsePassageAnswer decodes the model's JSON answer, tolerating markdown
// code fences some models wrap around JSON output.
func ParsePassageAnswer(text string) (*PassageAnswer, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var ans PassageAnswer
	if err := json.Unmarshal([]byte(trimmed), &ans); err != nil {
		return nil, fmt.Errorf("parsing oracle JSON answer: %w (raw: %s)", err, truncate(text, 500))
	}
	return &ans, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
