package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// Citation formats.
const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
)

var (
	answerStyle  = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	markerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// renderer prints answers with their citations.
type renderer struct {
	w      io.Writer
	format string
	colour bool
}

func newRenderer(w io.Writer, format string) (*renderer, error) {
	switch format {
	case formatDetailed, formatCompact:
	default:
		return nil, fmt.Errorf("%w: unknown format %q (use detailed or compact)", domain.ErrInvalidInput, format)
	}
	f, ok := w.(*os.File)
	return &renderer{w: w, format: format, colour: ok && term.IsTerminal(int(f.Fd()))}, nil
}

func (r *renderer) paint(style lipgloss.Style, s string) string {
	if !r.colour {
		return s
	}
	return style.Render(s)
}

// Answer writes the reply followed by its sources.
func (r *renderer) Answer(a *domain.Answer) {
	fmt.Fprintln(r.w, r.paint(answerStyle, a.Text))
	if a.Sources.IsEmpty() {
		return
	}

	fmt.Fprintln(r.w)
	if r.format == formatCompact {
		names := make([]string, len(a.Sources.Hits))
		for i, hit := range a.Sources.Hits {
			names[i] = fmt.Sprintf("[%d] %s", i+1, sourceName(hit.Document))
		}
		fmt.Fprintln(r.w, r.paint(dimStyle, "Sources: "+strings.Join(names, ", ")))
		return
	}

	fmt.Fprintln(r.w, r.paint(headingStyle, "Sources"))
	for i, hit := range a.Sources.Hits {
		doc := hit.Document
		fmt.Fprintf(r.w, "  %s %s\n", r.paint(markerStyle, fmt.Sprintf("[%d]", i+1)), sourceName(doc))
		if loc := location(doc); loc != "" {
			fmt.Fprintf(r.w, "      %s\n", loc)
		}
		fmt.Fprintln(r.w, r.paint(dimStyle, fmt.Sprintf("      id=%s score=%.3f", doc.ID, hit.Score)))
	}
}

// Turns writes a session transcript.
func (r *renderer) Turns(turns []domain.Turn) {
	for _, t := range turns {
		speaker := "You"
		if t.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		stamp := ""
		if !t.Timestamp.IsZero() {
			stamp = " " + r.paint(dimStyle, t.Timestamp.Local().Format("15:04"))
		}
		fmt.Fprintf(r.w, "%s%s: %s\n", r.paint(headingStyle, speaker), stamp, t.Text)
	}
}

func sourceName(doc domain.Document) string {
	if name := doc.String(domain.MetaName); name != "" {
		return name
	}
	return doc.ID
}

func location(doc domain.Document) string {
	var parts []string
	for _, key := range []string{domain.MetaCity, domain.MetaState, domain.MetaCountry} {
		if v := doc.String(key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
