// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal renders cards and chains for the CLI.
type Terminal struct {
	headline lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	hidden   lipgloss.Style
	stage    lipgloss.Style
	detail   lipgloss.Style
	arrow    lipgloss.Style
	errStyle lipgloss.Style
	box      lipgloss.Style
}

// NewTerminal builds styles for w. Colors are dropped when w is not a terminal.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		headline: r.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		label:    r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		value:    r.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		hidden:   r.NewStyle().Foreground(lipgloss.Color("#999999")).Italic(true),
		stage:    r.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		detail:   r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		arrow:    r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		errStyle: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		box:      r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Card renders a creature card inside a rounded box.
func (t *Terminal) Card(c Card) string {
	var b strings.Builder
	b.WriteString(t.headline.Render(c.Headline))
	b.WriteString("\n")
	t.row(&b, "ID", fmt.Sprintf("%d", c.ID))
	t.row(&b, "Height", c.Height)
	t.row(&b, "Weight", c.Weight)
	b.WriteString(t.label.Render("Abilities:"))
	for _, a := range c.Abilities {
		b.WriteString("\n  • ")
		if strings.HasSuffix(a, " (Hidden)") {
			b.WriteString(t.hidden.Render(a))
		} else {
			b.WriteString(t.value.Render(a))
		}
	}
	if c.SpriteURL != "" {
		b.WriteString("\n")
		t.row(&b, "Sprite", c.SpriteURL)
	}
	return t.box.Render(strings.TrimRight(b.String(), "\n"))
}

func (t *Terminal) row(b *strings.Builder, label, value string) {
	b.WriteString(t.label.Render(label + ":"))
	b.WriteString(" ")
	b.WriteString(t.value.Render(value))
	b.WriteString("\n")
}

// Chain renders stages on one line separated by arrows, with requirements in parentheses.
func (t *Terminal) Chain(stages []StageView) string {
	if len(stages) == 0 {
		return t.detail.Render("No evolution data")
	}
	var b strings.Builder
	for _, s := range stages {
		b.WriteString(t.stage.Render(s.Display))
		var notes []string
		if s.Level != "" {
			notes = append(notes, s.Level)
		}
		if s.Trigger != "" {
			notes = append(notes, s.Trigger)
		}
		if len(notes) > 0 {
			b.WriteString(" ")
			b.WriteString(t.detail.Render("(" + strings.Join(notes, ", ") + ")"))
		}
		if s.Arrow {
			b.WriteString(" ")
			b.WriteString(t.arrow.Render(Arrow))
			b.WriteString(" ")
		}
	}
	return b.String()
}

// Branches renders one chain line per path.
func (t *Terminal) Branches(paths [][]StageView) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, t.Chain(p))
	}
	return strings.Join(lines, "\n")
}

// Error renders an error line the way the page shows it.
func (t *Terminal) Error(err error) string {
	return t.errStyle.Render("Error: " + err.Error())
}
