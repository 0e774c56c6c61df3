package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/pipeline"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// Markdown writes res as a Markdown review document.
func Markdown(w io.Writer, res pipeline.Result) error {
	var b strings.Builder

	title := "text input"
	if res.Source != "" {
		title = filepath.Base(res.Source)
	}
	fmt.Fprintf(&b, "# Transcript report: %s\n\n", title)

	if res.Flagged() {
		b.WriteString("**Verdict:** FLAGGED FOR REVIEW. The cleaned text may have changed facts.\n\n")
	} else {
		b.WriteString("**Verdict:** no factual drift detected.\n\n")
	}
	if len(res.Findings) > 0 {
		for _, f := range res.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Transcript\n\n")
	quote(&b, res.Transcript.Text)
	if res.Transcript.Language != "" || res.Transcript.Duration > 0 {
		fmt.Fprintf(&b, "Language: %s, duration: %s\n\n", orDash(res.Transcript.Language), res.Transcript.Duration)
	}

	b.WriteString("## Cleaned\n\n")
	quote(&b, res.Cleaning.Cleaned)

	b.WriteString("## Edits\n\n")
	if len(res.Cleaning.Edits) == 0 {
		b.WriteString("_none_\n\n")
	} else {
		for _, e := range res.Cleaning.Edits {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	n := res.Validation.Numbers
	fmt.Fprintf(&b, "## Numbers (%s)\n\n", verdict(n.Mismatch))
	table(&b, n.OriginalNumbers, n.CleanedNumbers)

	e := res.Validation.Entities
	fmt.Fprintf(&b, "## Entities (%s)\n\n", verdict(e.Mismatch))
	table(&b, entityStrings(e.OriginalEntities), entityStrings(e.CleanedEntities))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("report: write markdown: %w", err)
	}
	return nil
}

func verdict(mismatch bool) string {
	if mismatch {
		return "mismatch"
	}
	return "match"
}

func quote(b *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		b.WriteString("_empty_\n\n")
		return
	}
	for line := range strings.SplitSeq(text, "\n") {
		fmt.Fprintf(b, "> %s\n", line)
	}
	b.WriteString("\n")
}

// table writes two sequences side by side, one row per position.
func table(b *strings.Builder, original, cleaned []string) {
	if len(original) == 0 && len(cleaned) == 0 {
		b.WriteString("_none_\n\n")
		return
	}
	b.WriteString("| # | Original | Cleaned |\n|---|---|---|\n")
	for i := range max(len(original), len(cleaned)) {
		fmt.Fprintf(b, "| %d | %s | %s |\n", i+1, cell(original, i), cell(cleaned, i))
	}
	b.WriteString("\n")
}

func cell(s []string, i int) string {
	if i >= len(s) {
		return "-"
	}
	return strings.ReplaceAll(s[i], "|", `\|`)
}

func entityStrings(ents []ner.Entity) []string {
	out := make([]string, len(ents))
	for i, e := range ents {
		out[i] = e.String()
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
