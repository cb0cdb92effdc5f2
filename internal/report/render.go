// Package report renders valuation rows as a terminal table.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/dkochetov/cryptofolio/internal/services/valuation"
)

// Human-facing USD figures are rounded only here, to 10 fractional digits.
const valueDigits = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	lossStyle   = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF5F5F"})
	totalStyle  = cellStyle.Bold(true)
)

// Renderer writes report tables to a terminal.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints a titled table of rows followed by the totals row. Rows at a
// loss are rendered in the alarm color; rows without a price yet show dashes
// instead of financial figures.
func (r *Renderer) Render(title string, rows []valuation.Row, totals valuation.Totals) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NETWORK", "ASSET", "AMOUNT", "PRICE", "VALUE", "INVESTED", "PNL", "PNL %", "X")

	alarms := make([]bool, 0, len(rows)+1)
	for _, row := range rows {
		t.Row(cells(row)...)
		alarms = append(alarms, row.Alarm)
	}
	t.Row(
		"", "TOTAL", "",
		"",
		money(totals.Value),
		money(totals.Invested),
		money(totals.PnL),
		totals.PnLPercent.StringFixed(2)+" %",
		totals.Multiple.StringFixed(2)+"x",
	)

	totalIdx := len(rows)
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row == totalIdx:
			return totalStyle
		case row >= 0 && row < len(alarms) && alarms[row]:
			return lossStyle
		default:
			return cellStyle
		}
	})

	fmt.Fprintln(r.w, titleStyle.Render(title))
	fmt.Fprintln(r.w, t.String())
}

func cells(row valuation.Row) []string {
	if !row.Priced {
		return []string{
			row.Network, row.Symbol, row.Amount.String(),
			"-", money(row.Value), money(row.Invested), "-", "-", "-",
		}
	}
	return []string{
		row.Network,
		row.Symbol,
		row.Amount.String(),
		row.Price.String(),
		money(row.Value),
		money(row.Invested),
		money(row.PnL),
		row.PnLPercent.StringFixed(2) + " %",
		row.Multiple.StringFixed(2) + "x",
	}
}

func money(v decimal.Decimal) string {
	return v.Round(valueDigits).String()
}
