package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/logsift/internal/model"
)

// DefaultVerboseThreshold is the match count below which verbose mode echoes lines.
const DefaultVerboseThreshold = 100

// Renderer writes a filter Report to an output stream.
type Renderer interface {
	Render(report model.Report) error
}

// ---------------------------------------------------------------------------
// Text Renderer (terminal summary)
// ---------------------------------------------------------------------------

var (
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // cyan
	styleCount   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // green
	styleNone    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))           // yellow
	styleFilters = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
)

// TextRenderer prints the match count and timing, and optionally the lines.
type TextRenderer struct {
	w         io.Writer
	verbose   bool
	threshold int
}

// NewTextRenderer returns a Renderer that writes to w, or stdout when w is nil.
// With verbose set, lines are echoed when fewer than threshold matched.
func NewTextRenderer(w io.Writer, verbose bool, threshold int) *TextRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &TextRenderer{w: w, verbose: verbose, threshold: threshold}
}

func (r *TextRenderer) Render(report model.Report) error {
	if report.Count() == 0 {
		_, err := fmt.Fprintln(r.w, styleNone.Render("No logs found"))
		return err
	}

	if len(report.Groups) > 0 {
		if _, err := fmt.Fprintln(r.w, styleFilters.Render(describeGroups(report.Groups))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(r.w, "%s %s\n", styleLabel.Render("Logs found in"), report.Elapsed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.w, "%s %s\n", styleLabel.Render("Logs found:"), styleCount.Render(fmt.Sprint(report.Count()))); err != nil {
		return err
	}

	if !r.ShouldEcho(report.Count()) {
		return nil
	}
	for _, line := range report.Lines {
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}

// ShouldEcho reports whether n matched lines are printed in full.
func (r *TextRenderer) ShouldEcho(n int) bool {
	return r.verbose && n < r.threshold
}

// describeGroups renders "ip=8.8.8.8 method=GET|POST" in a fixed category order.
func describeGroups(groups map[string][]string) string {
	out := ""
	for _, name := range []string{"ip", "date", "status", "method"} {
		tokens, ok := groups[name]
		if !ok {
			continue
		}
		if out != "" {
			out += " "
		}
		out += name + "="
		for i, tok := range tokens {
			if i > 0 {
				out += "|"
			}
			out += tok
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each report as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w, or stdout when w is nil.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(report model.Report) error {
	if report.Lines == nil {
		report.Lines = []string{}
	}
	return r.enc.Encode(report)
}
