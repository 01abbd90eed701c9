package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tau/usage-live/internal/usage"
)

// styles

var (
	accentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	labelColor = lipgloss.Color("252")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	percentGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	percentYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
	percentOrange = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	percentRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	staleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// percentStyle picks the color for a utilization figure: calm at the
// bottom, alarming near the limit.
func percentStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return percentRed
	case pct >= 70:
		return percentOrange
	case pct >= 50:
		return percentYellow
	default:
		return percentGreen
	}
}

// narrow returns true when the terminal is too tight for the full layout.
func (m Model) narrow() bool {
	return m.contentWidth() < 44
}

// contentWidth returns usable width inside the border.
func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 50
	}
	pad := 6 // 2 border + 4 padding
	if m.width < 35 {
		pad = 4
	}
	return m.width - pad
}

func (m Model) labelWidth() int {
	if m.narrow() {
		return 6
	}
	return 14
}

func (m Model) borderStyle() lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("99"))
	if m.width > 0 && m.width < 35 {
		return s.Padding(0, 1)
	}
	return s.Padding(0, 2)
}

// View renders the active view's panel from cache. It reads only the
// model, never the network.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs() + "\n\n")
	b.WriteString(m.renderBody(m.states[m.active]))
	b.WriteString(m.renderFooter(m.states[m.active]))

	return m.borderStyle().Render(b.String())
}

// renderTabs draws the view switcher line with the active view
// highlighted.
func (m Model) renderTabs() string {
	claude := usage.ViewClaude.String()
	cursor := usage.ViewCursor.String()
	if m.active == usage.ViewClaude {
		claude = accentStyle.Render(claude)
		cursor = dimStyle.Render(cursor)
	} else {
		claude = dimStyle.Render(claude)
		cursor = accentStyle.Render(cursor)
	}
	tabs := dimStyle.Render("← ") + claude + "   " + cursor + dimStyle.Render(" →")
	return lipgloss.PlaceHorizontal(m.contentWidth(), lipgloss.Center, tabs)
}

func (m Model) renderBody(st *viewState) string {
	if _, ok := m.providers[m.active]; !ok {
		return dimStyle.Render("  view disabled in config") + "\n"
	}
	if st.rec == nil {
		if st.err != nil {
			return errorStyle.Render("  "+usage.Hint(st.err)) + "\n"
		}
		return "  " + m.spinner.View() + dimStyle.Render(" loading...") + "\n"
	}

	var b strings.Builder
	lw := m.labelWidth()

	for _, w := range st.rec.Windows {
		b.WriteString(m.renderWindow(w, lw))
	}
	if e := st.rec.Extra; e != nil {
		b.WriteString(m.renderExtra(e, lw))
	}
	b.WriteString(m.renderResets(st.rec))

	if st.rec.Period != "" {
		b.WriteString(dimStyle.Render("  "+st.rec.Period) + "\n")
	}
	if rows := m.renderModels(st.rec, lw); rows != "" {
		b.WriteString("\n" + rows)
	}

	if st.stale && st.err != nil {
		b.WriteString("\n" + staleStyle.Render("  stale: "+usage.Hint(st.err)) + "\n")
	}
	return b.String()
}

func (m Model) renderWindow(w usage.Window, labelWidth int) string {
	label := w.Label
	if m.narrow() {
		label = shortLabel(label)
	}
	labelStr := lipgloss.NewStyle().Width(labelWidth).Foreground(labelColor).Render(label)
	pct := usage.ClampPercent(w.PercentUsed)
	pctStr := percentStyle(pct).Render(fmt.Sprintf("%4.0f%%", pct))
	return labelStr + m.bar.ViewAs(pct/100) + " " + pctStr + "\n"
}

func (m Model) renderExtra(e *usage.Extra, labelWidth int) string {
	labelStr := lipgloss.NewStyle().Width(labelWidth).Foreground(labelColor).Render(e.Label)
	pct := usage.ClampPercent(e.PercentUsed)
	pctStr := percentStyle(pct).Render(fmt.Sprintf("%4.0f%%", pct))
	spend := dimStyle.Render(fmt.Sprintf("  $%.2f of $%.2f", e.UsedCents/100, e.LimitCents/100))
	return labelStr + m.bar.ViewAs(pct/100) + " " + pctStr + spend + "\n"
}

func (m Model) renderResets(rec *usage.Record) string {
	now := m.now()
	var parts []string
	for _, w := range rec.Windows {
		if s := usage.FormatReset(w.ResetsAt, now); s != "" {
			parts = append(parts, shortLabel(w.Label)+": "+s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return dimStyle.Render("  "+strings.Join(parts, "  ")) + "\n"
}

// renderModels lists the busiest per-model request counts (Cursor).
func (m Model) renderModels(rec *usage.Record, labelWidth int) string {
	if len(rec.Models) == 0 {
		return ""
	}
	limit := 5
	if len(rec.Models) < limit {
		limit = len(rec.Models)
	}
	var b strings.Builder
	for _, mr := range rec.Models[:limit] {
		name := mr.Model
		if len(name) > labelWidth-1 {
			name = name[:labelWidth-1]
		}
		labelStr := dimStyle.Width(labelWidth).Render("  " + name)
		b.WriteString(labelStr + dimStyle.Render(humanize.Comma(mr.Requests)+" reqs") + "\n")
	}
	return b.String()
}

func (m Model) renderFooter(st *viewState) string {
	hints := "←/→ switch  r refresh  q quit"
	line := ""
	if st.rec != nil && !st.rec.FetchedAt.IsZero() {
		line = "updated " + humanize.Time(st.rec.FetchedAt)
		if st.rec.Plan != "" {
			line += " • " + st.rec.Plan
		}
		line += "\n"
	}
	return "\n" + footerStyle.Render(line+hints)
}

func shortLabel(label string) string {
	switch label {
	case "Session (5h)":
		return "5h"
	case "Weekly (7d)":
		return "7d"
	case "Opus (7d)":
		return "Opus"
	}
	return label
}
