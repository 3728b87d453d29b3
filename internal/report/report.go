package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/qqq3x-signal/internal/live"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	// LabelStyle for the key column of a summary.
	LabelStyle = lipgloss.NewStyle().Width(22).Faint(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// LeverageStyle highlights the leverage signal.
	LeverageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	// SafeStyle highlights the safe signal.
	SafeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// Stats renders a backtest summary.
func Stats(stats types.BacktestStats) string {
	lines := []string{
		TitleStyle.Render("Backtest " + stats.ID),
		row("Data", stats.DataPath),
		row("Window", fmt.Sprintf("%s to %s", stats.StartDate.Format(time.DateOnly), stats.EndDate.Format(time.DateOnly))),
		row("Trading days", fmt.Sprintf("%d", stats.TradingDays)),
		row("Initial capital", fmt.Sprintf("%.2f", stats.InitialCapital)),
		row("Final NAV", fmt.Sprintf("%.2f", stats.FinalNAV)),
		row("Total return", FormatPercent(stats.TotalReturn)),
		row("CAGR", FormatPercent(stats.CAGR)),
		row("Max drawdown", FormatPercent(-stats.MaxDrawdown)),
		row("Buy and hold", FormatPercent(stats.BuyAndHoldReturn)),
		row("Trades", fmt.Sprintf("%d", stats.NumberOfTrades)),
		row("Leverage days", fmt.Sprintf("%d", stats.LeverageDays)),
	}

	if stats.ResultFilePath != "" {
		lines = append(lines, HelpStyle.Render("Results written to "+stats.ResultFilePath))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Today renders the daily signal. The trace is included when verbose is set.
func Today(today live.TodaySignal, verbose bool) string {
	raw := "none"
	if today.RawSignal.IsSome() {
		raw = today.RawSignal.Unwrap().String()
	}

	lines := []string{
		TitleStyle.Render("Signal for " + today.Date.Format(time.DateOnly)),
		row("Decision bar", today.DecisionDate.Format(time.DateOnly)),
		row("QQQ open", fmt.Sprintf("%.2f", today.Quote.QQQOpen)),
		row("VIX open", fmt.Sprintf("%.2f", today.Quote.VIXOpen)),
		row("Formula", today.Formula),
		row("Raw signal", raw),
		row("Signal", FormatSignal(today.Signal)),
		row("Previous signal", FormatSignal(today.PreviousSignal)),
		row("Trade", fmt.Sprintf("%t", today.Trade)),
		row("Safe asset", string(today.SafeAsset)),
		"",
		TitleStyle.Render(today.Recommendation),
	}

	if verbose {
		lines = append(lines, TitleStyle.Render("Predicates"))
		for _, named := range today.Trace.Predicates {
			lines = append(lines, row(named.Name, named.Value.String()))
		}

		lines = append(lines, "", TitleStyle.Render("Values"))
		for _, value := range today.Trace.Values {
			lines = append(lines, row(value.Name, FormatValue(value.Value)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Error renders an error for the terminal.
func Error(err error) string {
	return ErrorStyle.Render("Error: " + err.Error())
}

// FormatSignal renders a signal in its highlight colour.
func FormatSignal(signal types.Signal) string {
	switch signal {
	case types.SignalLeverage:
		return LeverageStyle.Render(signal.String())
	case types.SignalSafe:
		return SafeStyle.Render(signal.String())
	default:
		return HelpStyle.Render(signal.String())
	}
}

// FormatPercent formats a fraction as a signed percentage with a direction marker.
func FormatPercent(value float64) string {
	if math.IsNaN(value) {
		return "n/a"
	}

	s := fmt.Sprintf("%+.2f%%", value*100)

	if value > 0 {
		return s + " ▲"
	} else if value < 0 {
		return s + " ▼"
	}

	return s
}

// FormatValue formats a trace value. Undefined values print as n/a.
func FormatValue(value float64) string {
	if math.IsNaN(value) {
		return "n/a"
	}

	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", value), "0"), ".")
}

func row(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}
