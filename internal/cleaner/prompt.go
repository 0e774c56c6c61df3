package cleaner

import (
	"bytes"
	"encoding/json"
	"strings"
)

// systemPrompt carries the cleaning contract. The exemplars and the input
// travel in the user message built by buildUserPrompt.
const systemPrompt = `CRITICAL INSTRUCTION: You are a linguistic cleaner with ONE JOB ONLY.

REMOVE ONLY THESE DISFLUENCIES:
- Filler words: "uh", "um", "like", "you know", "basically", "stuff", "or something"
- Stammers and word repetitions that are clearly speech errors
- Basic punctuation, capitalization and spacing problems

ABSOLUTE PROHIBITIONS. NEVER, UNDER ANY CIRCUMSTANCES:
- NEVER change any factual claim, even if it is obviously wrong
- NEVER swap, correct or "fix" named entities (people, places, organizations)
- NEVER change numbers, dates, quantities or measurements
- NEVER add missing information or infer what the speaker "meant"
- NEVER correct historical, scientific or any other factual errors
- NEVER change the meaning or substance of what was said

Your job is to make speech readable, NOT to make it correct.

Output format: JSON only
{
"original": "<exact input>",
"cleaned": "<cleaned version with NO factual changes>",
"edits": ["<list of ONLY linguistic edits made>"]
}`

// exemplar is one worked input/output pair shown to the model. Field order
// fixes the key order of the rendered JSON.
type exemplar struct {
	Original string   `json:"original"`
	Cleaned  string   `json:"cleaned"`
	Edits    []string `json:"edits"`
}

// exemplars demonstrate that wrong facts survive cleaning untouched.
var exemplars = []exemplar{
	{
		Original: "uh the capital of France is Berlin I think um yeah Berlin.",
		Cleaned:  "The capital of France is Berlin, I think—yeah, Berlin.",
		Edits: []string{
			"Removed fillers: 'uh', 'um'",
			"Fixed capitalization and punctuation",
			"PRESERVED factual claim 'Berlin' (even though incorrect)",
		},
	},
	{
		Original: "um Lincoln was assassinated by um John Wilkes Booth in like 1900 I think.",
		Cleaned:  "Lincoln was assassinated by John Wilkes Booth in 1900, I think.",
		Edits: []string{
			"Removed fillers: 'um', 'like'",
			"Fixed punctuation",
			"PRESERVED incorrect date '1900' without correction",
		},
	},
}

// exemplarText is rendered once; the exemplars never change.
var exemplarText = renderExemplars(exemplars)

// renderExemplars formats each exemplar as its input followed by the exact
// JSON the model is expected to return, separated by horizontal rules.
func renderExemplars(ex []exemplar) string {
	blocks := make([]string, 0, len(ex))
	for _, e := range ex {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e); err != nil {
			panic("cleaner: render exemplar: " + err.Error())
		}
		blocks = append(blocks, "Input:\n"+e.Original+"\n\nRequired Output:\n"+strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// buildUserPrompt wraps the raw transcript with the exemplars and the final
// reminder.
func buildUserPrompt(raw string) string {
	var sb strings.Builder
	sb.WriteString("STUDY THESE EXAMPLES - NOTICE HOW FACTUAL ERRORS ARE PRESERVED:\n")
	sb.WriteString(exemplarText)
	sb.WriteString("\n\nREMEMBER: Your job is linguistic cleaning only. DO NOT be helpful by fixing facts.\n")
	sb.WriteString("If you change any factual content, you have failed completely.\n\n")
	sb.WriteString("Now process this input:\n\nInput:\n")
	sb.WriteString(raw)
	sb.WriteString("\n\nReturn JSON only:")
	return sb.String()
}
