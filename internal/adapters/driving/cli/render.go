package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Palette shared by all commands.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
)

// renderer styles output when writing to a terminal and prints plain text otherwise.
type renderer struct {
	styled bool

	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newRenderer(cmd *cobra.Command) *renderer {
	styled := false
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &renderer{
		styled:  styled,
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		success: lipgloss.NewStyle().Foreground(colorSuccess),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		failure: lipgloss.NewStyle().Foreground(colorError),
	}
}

func (r *renderer) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *renderer) Title(s string) string   { return r.render(r.title, s) }
func (r *renderer) Muted(s string) string   { return r.render(r.muted, s) }
func (r *renderer) Warning(s string) string { return r.render(r.warning, s) }

// State colours a processing state.
func (r *renderer) State(doc *domain.Document) string {
	label := string(doc.State)
	switch {
	case doc.State == domain.StateFailed:
		return r.render(r.failure, label)
	case doc.State != domain.StateCompleted:
		return r.render(r.muted, label)
	case doc.IndexStatus == domain.IndexStatusIndexed:
		return r.render(r.success, label)
	default:
		return r.render(r.warning, fmt.Sprintf("%s (%s)", label, doc.IndexStatus))
	}
}

// Score formats a similarity score.
func (r *renderer) Score(score float64) string {
	return r.render(r.muted, fmt.Sprintf("%.2f", score))
}

// Passage indents and truncates chunk content for listing.
func (r *renderer) Passage(content string, limit int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if limit > 0 && len(runes) > limit {
		content = string(runes[:limit]) + "..."
	}
	return content
}
