// Package report renders plain-text summaries for the CLI.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"CandleScope/internal/calculator"
	"CandleScope/internal/model"
)

// FormatSeriesSummary formats the latest price, range and RSI of a candle series.
func FormatSeriesSummary(symbol, interval string, candles []model.Candle) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s (%s) | %d bars\n", symbol, interval, len(candles)))
	if len(candles) == 0 {
		b.WriteString("no data\n")
		return b.String()
	}

	first, last := candles[0], candles[len(candles)-1]
	b.WriteString(fmt.Sprintf("Period: %s → %s\n",
		first.Time().Format("2006-01-02"), last.Time().Format("2006-01-02")))

	price, _ := calculator.LatestClose(candles)
	change := 0.0
	if first.Close > 0 {
		change = (price - first.Close) / first.Close * 100
	}
	b.WriteString(fmt.Sprintf("Latest price: %.2f (%+.2f%%)\n", price, change))

	high, low, _ := calculator.HighLow(candles)
	b.WriteString(fmt.Sprintf("High: %.2f | Low: %.2f\n", high, low))

	if rsi, ok := calculator.LatestRSI(candles); ok {
		b.WriteString(fmt.Sprintf("RSI: %.2f%s\n", rsi, rsiZone(rsi)))
	} else {
		b.WriteString("RSI: n/a\n")
	}

	var volume float64
	for _, c := range candles {
		volume += c.Volume
	}
	b.WriteString(fmt.Sprintf("Total volume: %s\n", humanize.Comma(int64(volume))))
	return b.String()
}

func rsiZone(v float64) string {
	switch {
	case v >= 70:
		return " (overbought)"
	case v <= 30:
		return " (oversold)"
	}
	return ""
}

// FormatLedger formats the simulated position and its transactions.
func FormatLedger(state model.LedgerState, visible []model.Candle, pnl, invested float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Ledger: %s\n", state.Symbol))
	b.WriteString(fmt.Sprintf("Position: %d @ %.2f\n", state.Position.Quantity, state.Position.AvgPrice))
	b.WriteString(fmt.Sprintf("Invested: %.2f\n", invested))
	if price, err := calculator.LatestClose(visible); err == nil {
		b.WriteString(fmt.Sprintf("Mark: %.2f | P&L: %+.2f\n", price, pnl))
	}

	if len(state.Transactions) == 0 {
		b.WriteString("No transactions\n")
		return b.String()
	}

	b.WriteString("\nTransactions:\n")
	for _, tx := range state.Transactions {
		b.WriteString(fmt.Sprintf("  %-4s %6d x %10.2f = %12.2f  %s\n",
			tx.Side, tx.Quantity, tx.Price, tx.Total(),
			time.Unix(tx.Timestamp, 0).UTC().Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatYearlySummary lists, per year, the first and last close and the change between them.
func FormatYearlySummary(symbol string, series []model.YearSeries) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s year over year\n", symbol))
	if len(series) == 0 {
		b.WriteString("no data\n")
		return b.String()
	}
	for _, ys := range series {
		if len(ys.Data) == 0 {
			continue
		}
		first, last := ys.Data[0], ys.Data[len(ys.Data)-1]
		b.WriteString(fmt.Sprintf("  %d: %10.2f → %10.2f  %+7.2f%%  (%d points)\n",
			ys.Year, first.Close, last.Close, last.Percentage, len(ys.Data)))
	}
	return b.String()
}
