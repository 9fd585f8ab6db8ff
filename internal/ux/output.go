// Package ux provides styled terminal output for the moderation CLIs.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Console palette. Column hues follow the audit table layout: user,
// comment, proposed plan, effective plan, actions, memory.
var (
	ColorUser      = lipgloss.Color("#56B6C2")
	ColorComment   = lipgloss.Color("#ABB2BF")
	ColorProposed  = lipgloss.Color("#61AFEF")
	ColorEffective = lipgloss.Color("#C678DD")
	ColorActions   = lipgloss.Color("#E5C07B")
	ColorMemory    = lipgloss.Color("#98C379")

	ColorSuccess = lipgloss.Color("#98C379")
	ColorWarning = lipgloss.Color("#E5C07B")
	ColorError   = lipgloss.Color("#E06C75")
	ColorMuted   = lipgloss.Color("#5C6370")
	ColorBorder  = lipgloss.Color("#3E4451")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorProposed),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorComment),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// columnStyles cycle across table columns in audit order.
var columnStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(ColorUser),
	lipgloss.NewStyle().Foreground(ColorComment),
	lipgloss.NewStyle().Foreground(ColorProposed),
	lipgloss.NewStyle().Foreground(ColorEffective),
	lipgloss.NewStyle().Foreground(ColorActions),
	lipgloss.NewStyle().Foreground(ColorMemory),
}

// Truncate cuts s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// RenderTable renders headers and rows as a bordered table with the
// column palette applied in order.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header.Padding(0, 1)
			}
			return columnStyles[col%len(columnStyles)].Padding(0, 1)
		})
	return t.Render()
}

// Title renders a bold section heading.
func Title(text string) string {
	return Styles.Title.Render(text)
}

// KeyValue renders one aligned summary line.
func KeyValue(key, value string) string {
	return fmt.Sprintf("%s %s", Styles.Muted.Render(key+":"), value)
}

// CheckLine renders a pass/fail verdict with its detail.
func CheckLine(pass bool, name, detail string) string {
	mark := Styles.Success.Render("✓")
	if !pass {
		mark = Styles.Error.Render("✗")
	}
	var b strings.Builder
	b.WriteString(mark)
	b.WriteString(" ")
	b.WriteString(name)
	if detail != "" {
		b.WriteString(" ")
		b.WriteString(Styles.Muted.Render("(" + detail + ")"))
	}
	return b.String()
}
