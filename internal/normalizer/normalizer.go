// Package normalizer turns upstream quote payloads into an ordered candle sequence.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"CandleScope/internal/model"
)

var (
	ErrUnrecognizedShape = errors.New("unrecognized payload shape")
	ErrLengthMismatch    = errors.New("quote array length mismatch")
	ErrMissingQuote      = errors.New("payload has no quote block")
)

// Decode parses raw JSON and picks the payload shape from its top-level keys.
// A "chart" key selects the provider envelope, a "timestamp" key the generic shape.
func Decode(raw []byte) (model.Payload, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if _, ok := keys["chart"]; ok {
		var env model.ChartEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode chart envelope: %w", err)
		}
		return env, nil
	}
	if _, ok := keys["timestamp"]; ok {
		var gp model.GenericPayload
		if err := json.Unmarshal(raw, &gp); err != nil {
			return nil, fmt.Errorf("decode generic payload: %w", err)
		}
		return gp, nil
	}
	return nil, ErrUnrecognizedShape
}

// Parse decodes raw JSON and normalizes it in one step.
func Parse(raw []byte) ([]model.Candle, error) {
	p, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(p)
}

// Normalize dispatches on the payload shape.
func Normalize(p model.Payload) ([]model.Candle, error) {
	switch v := p.(type) {
	case model.GenericPayload:
		return NormalizeGeneric(v)
	case model.ChartEnvelope:
		return NormalizeProviderChart(v)
	case *model.GenericPayload:
		return NormalizeGeneric(*v)
	case *model.ChartEnvelope:
		return NormalizeProviderChart(*v)
	default:
		return nil, ErrUnrecognizedShape
	}
}

// NormalizeGeneric builds candles from the flat timestamp/quote shape.
func NormalizeGeneric(p model.GenericPayload) ([]model.Candle, error) {
	return fromSeries(p.QuoteSeries)
}

// NormalizeProviderChart builds candles from chart.result[0]. An absent or empty
// result is not an error: it yields an empty sequence.
func NormalizeProviderChart(env model.ChartEnvelope) ([]model.Candle, error) {
	if len(env.Chart.Result) == 0 {
		return []model.Candle{}, nil
	}
	return fromSeries(env.Chart.Result[0])
}

func fromSeries(s model.QuoteSeries) ([]model.Candle, error) {
	n := len(s.Timestamp)
	if n == 0 {
		return []model.Candle{}, nil
	}
	if len(s.Indicators.Quote) == 0 {
		return nil, ErrMissingQuote
	}
	q := s.Indicators.Quote[0]
	if err := checkLengths(n, q); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, n)
	for i, ts := range s.Timestamp {
		candles[i] = model.Candle{
			Timestamp: ts,
			Open:      value(q.Open[i]),
			High:      value(q.High[i]),
			Low:       value(q.Low[i]),
			Close:     value(q.Close[i]),
			Volume:    value(q.Volume[i]),
		}
	}
	return candles, nil
}

func checkLengths(n int, q model.Quote) error {
	fields := []struct {
		name string
		vals []*float64
	}{
		{"open", q.Open},
		{"high", q.High},
		{"low", q.Low},
		{"close", q.Close},
		{"volume", q.Volume},
	}
	for _, f := range fields {
		if len(f.vals) != n {
			return fmt.Errorf("%w: %s has %d values, timestamp has %d", ErrLengthMismatch, f.name, len(f.vals), n)
		}
	}
	return nil
}

// value maps a JSON null to NaN.
func value(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// DropIncomplete returns the candles whose open, high, low and close are all numbers.
// A missing volume on a kept candle becomes 0.
func DropIncomplete(candles []model.Candle) []model.Candle {
	out := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if math.IsNaN(c.Open) || math.IsNaN(c.High) || math.IsNaN(c.Low) || math.IsNaN(c.Close) {
			continue
		}
		if math.IsNaN(c.Volume) {
			c.Volume = 0
		}
		out = append(out, c)
	}
	return out
}

// Closes extracts closing prices in order.
func Closes(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
