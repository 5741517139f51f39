package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns the app title with a muted subtitle on the same row.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	head := HeaderStyle.Render(title)
	if subtitle == "" {
		return head
	}
	rest := width - lipgloss.Width(head) - 3
	return lipgloss.JoinHorizontal(lipgloss.Top, head, "  ", renderMuted(truncateEnd(subtitle, rest)))
}

// renderInputFrame draws a rounded bordered container around a rendered
// input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth).
		Render(inputView)
}

// renderCentered centers content within a width x height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderStatus renders the status line colored by severity.
func renderStatus(status string, width int) string {
	return statusStyle(classifyStatus(status)).Padding(0, 1).
		Render(truncateEnd(status, width-2))
}
