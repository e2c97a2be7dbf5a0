package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"CandleScope/internal/calculator"
	"CandleScope/internal/metrics"
	"CandleScope/internal/model"
	"CandleScope/internal/normalizer"
)

// Collector fetches provider payloads and turns them into annotated candle series.
type Collector struct {
	Fetcher     Fetcher
	Bonds       BondFetcher
	Period      int // RSI lookback
	Concurrency int // parallel per-year fetches
	Location    *time.Location
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, bonds BondFetcher, period int, m *metrics.Metrics) *Collector {
	if period <= 0 {
		period = calculator.DefaultRSIPeriod
	}
	return &Collector{
		Fetcher:     fetcher,
		Bonds:       bonds,
		Period:      period,
		Concurrency: 4,
		Location:    time.UTC,
		Metrics:     m,
		Now:         time.Now,
	}
}

// Candles fetches one chart and returns its candles annotated with RSI.
// Bars with a missing price are dropped before the indicator is computed.
func (c *Collector) Candles(ctx context.Context, q ChartQuery) ([]model.Candle, error) {
	candles, err := c.fetchCandles(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.annotate(candles)
}

// CandlesByYear fetches one chart per calendar year, merges them in time order and
// computes RSI over the merged series.
func (c *Collector) CandlesByYear(ctx context.Context, symbol, interval string, years int) ([]model.Candle, error) {
	windows := YearWindows(c.Now().In(c.location()), years)
	parts := make([][]model.Candle, len(windows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())
	for i, w := range windows {
		g.Go(func() error {
			candles, err := c.fetchCandles(gCtx, ChartQuery{Symbol: symbol, Period1: w.From, Period2: w.To, Interval: interval})
			if err != nil {
				return fmt.Errorf("year %d: %w", w.Year, err)
			}
			parts[i] = candles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c.annotate(MergeCandles(parts...))
}

// YearlySeries returns the daily closes of the current year and the previous years,
// each expressed as a percentage change from its first close. Years without data are omitted.
func (c *Collector) YearlySeries(ctx context.Context, symbol string, years int) ([]model.YearSeries, error) {
	return c.yearly(ctx, years, func(ctx context.Context, w YearWindow) ([]model.ClosePoint, error) {
		candles, err := c.fetchCandles(ctx, ChartQuery{Symbol: symbol, Period1: w.From, Period2: w.To, Interval: "1d"})
		if err != nil {
			return nil, err
		}
		points := make([]model.ClosePoint, 0, len(candles))
		for _, cd := range candles {
			points = append(points, model.ClosePoint{Timestamp: cd.Timestamp, Close: cd.Close})
		}
		return points, nil
	})
}

// BondYearlySeries is YearlySeries for an NSE gold bond series.
func (c *Collector) BondYearlySeries(ctx context.Context, symbol string, years int) ([]model.YearSeries, error) {
	if c.Bonds == nil {
		return nil, fmt.Errorf("no bond data source configured")
	}
	return c.yearly(ctx, years, func(ctx context.Context, w YearWindow) ([]model.ClosePoint, error) {
		to := time.Date(w.Year, time.December, 31, 0, 0, 0, 0, w.From.Location())
		return c.BondCloses(ctx, symbol, w.From, to)
	})
}

// BondCloses fetches bond closes between from and to, oldest first.
func (c *Collector) BondCloses(ctx context.Context, symbol string, from, to time.Time) ([]model.ClosePoint, error) {
	if c.Bonds == nil {
		return nil, fmt.Errorf("no bond data source configured")
	}
	start := time.Now()
	points, err := c.Bonds.FetchBondCloses(ctx, symbol, from, to)
	c.Metrics.ObserveFetch(c.Bonds.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch bond %s: %w", symbol, err)
	}
	return points, nil
}

func (c *Collector) yearly(ctx context.Context, years int, fetch func(context.Context, YearWindow) ([]model.ClosePoint, error)) ([]model.YearSeries, error) {
	windows := YearWindows(c.Now().In(c.location()), years)
	series := make([]model.YearSeries, len(windows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())
	for i, w := range windows {
		g.Go(func() error {
			points, err := fetch(gCtx, w)
			if err != nil {
				return fmt.Errorf("year %d: %w", w.Year, err)
			}
			sort.SliceStable(points, func(a, b int) bool { return points[a].Timestamp < points[b].Timestamp })
			series[i] = model.YearSeries{Year: w.Year, Data: calculator.PercentChange(points)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.YearSeries, 0, len(series))
	for _, s := range series {
		if len(s.Data) == 0 {
			log.Printf("[WARN] no data for %d, skipping", s.Year)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Collector) fetchCandles(ctx context.Context, q ChartQuery) ([]model.Candle, error) {
	start := time.Now()
	raw, err := c.Fetcher.FetchChart(ctx, q)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", q.Symbol, err)
	}

	payload, err := normalizer.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode chart %s: %w", q.Symbol, err)
	}
	if env, ok := payload.(model.ChartEnvelope); ok && env.Chart.Error != nil {
		log.Printf("[WARN] %s chart error for %s: %s", c.Fetcher.Name(), q.Symbol, env.Chart.Error.Description)
	}
	candles, err := normalizer.Normalize(payload)
	if err != nil {
		return nil, fmt.Errorf("normalize chart %s: %w", q.Symbol, err)
	}

	complete := normalizer.DropIncomplete(candles)
	if dropped := len(candles) - len(complete); dropped > 0 {
		log.Printf("[INFO] %s: dropped %d bars with missing prices", q.Symbol, dropped)
	}
	c.Metrics.Normalized(len(complete))
	return complete, nil
}

func (c *Collector) annotate(candles []model.Candle) ([]model.Candle, error) {
	start := time.Now()
	defer c.Metrics.ObserveRSI(start)
	out, err := calculator.AnnotateRSI(candles, c.Period)
	if err != nil {
		return nil, fmt.Errorf("annotate rsi: %w", err)
	}
	return out, nil
}

func (c *Collector) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c *Collector) concurrency() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}

// YearWindow is one calendar year of a multi-year request.
type YearWindow struct {
	Year int
	From time.Time
	To   time.Time
}

// YearWindows returns the current year (up to now) followed by the previous years,
// newest first. years is the number of previous years.
func YearWindows(now time.Time, years int) []YearWindow {
	if years < 0 {
		years = 0
	}
	loc := now.Location()
	windows := make([]YearWindow, 0, years+1)
	for i := 0; i <= years; i++ {
		year := now.Year() - i
		w := YearWindow{
			Year: year,
			From: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			To:   time.Date(year, time.December, 31, 23, 59, 59, 0, loc),
		}
		if i == 0 {
			w.To = now
		}
		windows = append(windows, w)
	}
	return windows
}

// MergeCandles concatenates series, sorts by timestamp and keeps the first candle
// seen for each timestamp.
func MergeCandles(series ...[]model.Candle) []model.Candle {
	var merged []model.Candle
	for _, s := range series {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })

	out := make([]model.Candle, 0, len(merged))
	for i, cd := range merged {
		if i > 0 && cd.Timestamp == merged[i-1].Timestamp {
			continue
		}
		out = append(out, cd)
	}
	return out
}
