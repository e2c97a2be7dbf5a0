package collector

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"CandleScope/internal/model"
)

// MockFetcher returns controllable chart payloads for development and testing.
type MockFetcher struct {
	Price    float64           // base price for generated bars
	Payloads map[string][]byte // fixed payloads by symbol
	Err      error
	calls    atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchChart was invoked.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

// FetchChart returns the fixed payload for the symbol, or a generated daily chart
// envelope covering the query range.
func (m *MockFetcher) FetchChart(_ context.Context, q ChartQuery) ([]byte, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if raw, ok := m.Payloads[q.Symbol]; ok {
		return raw, nil
	}
	return json.Marshal(generateChart(m.Price, q.Period1, q.Period2))
}

func generateChart(basePrice float64, from, to time.Time) model.ChartEnvelope {
	var series model.QuoteSeries
	var quote model.Quote
	for i, day := 0, from; !day.After(to); i, day = i+1, day.AddDate(0, 0, 1) {
		p := basePrice * (1 + 0.02*float64(i%7-3)/3 + 0.001*float64(i))
		series.Timestamp = append(series.Timestamp, day.Unix())
		quote.Open = append(quote.Open, ptr(p*0.999))
		quote.High = append(quote.High, ptr(p*1.005))
		quote.Low = append(quote.Low, ptr(p*0.995))
		quote.Close = append(quote.Close, ptr(p))
		quote.Volume = append(quote.Volume, ptr(1000000))
	}
	series.Indicators.Quote = []model.Quote{quote}

	var env model.ChartEnvelope
	if len(series.Timestamp) > 0 {
		env.Chart.Result = []model.QuoteSeries{series}
	}
	return env
}

func ptr(v float64) *float64 { return &v }

// MockBondFetcher serves fixed bond closes filtered to the requested range.
type MockBondFetcher struct {
	Points []model.ClosePoint
	Err    error
}

func (m *MockBondFetcher) Name() string { return "mock-nse" }

func (m *MockBondFetcher) FetchBondCloses(_ context.Context, _ string, from, to time.Time) ([]model.ClosePoint, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	end := to.AddDate(0, 0, 1)
	var out []model.ClosePoint
	for _, p := range m.Points {
		if p.Timestamp >= from.Unix() && p.Timestamp < end.Unix() {
			out = append(out, p)
		}
	}
	return out, nil
}
