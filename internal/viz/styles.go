package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff")).
			MarginBottom(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusFault   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true).MarginTop(1)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

// ThrustBar draws a centered bar for a command in [-limit, limit], filling
// left for negative and right for positive values.
func ThrustBar(v, limit float64, width int) string {
	half := width / 2
	frac := 0.0
	if limit > 0 {
		frac = math.Max(-1, math.Min(1, v/limit))
	}
	n := int(math.Round(math.Abs(frac) * float64(half)))

	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	fill := strings.Repeat("█", n)
	if frac < 0 {
		left = strings.Repeat("░", half-n) + fill
	} else {
		right = fill + strings.Repeat("░", half-n)
	}

	style := barLow
	switch a := math.Abs(frac); {
	case a >= 1:
		style = barHigh
	case a > 0.6:
		style = barMid
	}
	return style.Render(left+"│"+right) + valueStyle.Render(fmt.Sprintf(" %6.1f", v))
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}
