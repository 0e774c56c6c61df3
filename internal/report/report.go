// Package report renders pipeline results for download and for the CLI.
//
// JSON output is indented by two spaces and does not escape HTML, so
// non-ASCII transcripts and characters like "<" survive verbatim. Markdown
// output is meant for human reviewers: the review verdict comes first,
// followed by the transcript, the cleaned text and the side-by-side numeric
// and entity sequences.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/pipeline"
)

// Format is an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat converts a flag or query value to a Format. "markdown" is
// accepted as an alias for "md"; the empty string yields [FormatJSON].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("report: unknown format %q (want json or md)", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return ".json"
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// FileName returns the report file name for source, e.g. "q1.wav" becomes
// "q1.scribe.json". An empty source yields "transcript.scribe.<ext>".
func FileName(source string, f Format) string {
	base := filepath.Base(source)
	if source == "" || base == "." || base == string(filepath.Separator) {
		base = "transcript"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".scribe" + f.Ext()
}

// Render writes res to w in format f.
func Render(w io.Writer, res pipeline.Result, f Format) error {
	switch f {
	case FormatJSON:
		return JSON(w, res)
	case FormatMarkdown:
		return Markdown(w, res)
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
}

// JSON writes v as indented JSON without HTML escaping.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}
