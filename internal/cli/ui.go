package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zenvex/voltagent/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B")).
		Padding(0, 1).
		MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(76)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Width(18)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	errStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// DisplayBanner shows the startup banner.
func DisplayBanner(version string) {
	banner := titleStyle.Render("voltagent " + version)
	fmt.Println(banner)
	fmt.Println("autonomous options trading loop")
	fmt.Println()
}

// RenderCheckpoint formats the persisted agent state for the status command.
func RenderCheckpoint(cp *models.Checkpoint) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Agent", cp.AgentID)
	row("State", renderState(cp.State))
	row("Cycle", fmt.Sprintf("%d", cp.Cycle))
	row("Saved", cp.SavedAt.Format("2006-01-02 15:04:05"))

	if p := cp.Performance; p != nil {
		row("Daily P&L", renderPnL(p.DailyPnL))
		row("Total P&L", renderPnL(p.TotalPnL))
		row("Trades", fmt.Sprintf("%d (%d W / %d L)", p.TotalTrades, p.Wins, p.Losses))
		row("Drawdown", fmt.Sprintf("%.2f", p.Drawdown))
	}
	if cp.Params != nil {
		row("Min confidence", fmt.Sprintf("%.0f", cp.Params.MinConfidence))
		row("Vol comfort", string(cp.Params.VolComfort))
		if cp.Params.PreferredStrategy != models.StrategyNoTrade {
			row("Preferred", string(cp.Params.PreferredStrategy))
		}
	}

	if len(cp.Positions) > 0 {
		b.WriteString("\nOpen positions:\n")
		for _, p := range cp.Positions {
			b.WriteString(fmt.Sprintf("  %-18s entry=%.2f target=%.2f stop=%.2f pnl=%s\n",
				p.Strategy, p.EntryCost, p.Target, p.Stop, renderPnL(p.UnrealizedPnL)))
		}
	}
	if len(cp.Decisions) > 0 {
		d := cp.Decisions[0]
		b.WriteString(fmt.Sprintf("\nLast decision: %s %s conf=%.0f (%s)\n",
			d.Action, d.Strategy, d.Confidence, d.Source))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderState(state string) string {
	switch state {
	case "paused":
		return warnStyle.Render(state)
	case "stopped":
		return errStyle.Render(state)
	default:
		return okStyle.Render(state)
	}
}

func renderPnL(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v < 0 {
		return errStyle.Render(s)
	}
	return okStyle.Render(s)
}
