package collector

import (
	"context"
	"fmt"
	"time"

	"CandleScope/internal/model"
)

// ChartQuery selects one chart request: a symbol, a closed time range and a bar interval.
type ChartQuery struct {
	Symbol   string
	Period1  time.Time
	Period2  time.Time
	Interval string // e.g. "1d", "1wk"
}

// Key identifies the query for caching.
func (q ChartQuery) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s", q.Symbol, q.Period1.Unix(), q.Period2.Unix(), q.Interval)
}

// Fetcher retrieves raw chart payloads from a market-data provider.
type Fetcher interface {
	FetchChart(ctx context.Context, q ChartQuery) ([]byte, error)
	Name() string
}

// BondFetcher retrieves daily closes for exchange-traded bonds.
type BondFetcher interface {
	FetchBondCloses(ctx context.Context, symbol string, from, to time.Time) ([]model.ClosePoint, error)
	Name() string
}
