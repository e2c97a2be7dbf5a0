package calculator

import (
	"errors"
	"math"

	"CandleScope/internal/model"
)

var ErrNoCandles = errors.New("no candles provided")

// HighLow scans the candles and returns the highest high and the lowest low.
func HighLow(candles []model.Candle) (high, low float64, err error) {
	if len(candles) == 0 {
		return 0, 0, ErrNoCandles
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low, nil
}

// LatestClose returns the close of the last candle.
func LatestClose(candles []model.Candle) (float64, error) {
	if len(candles) == 0 {
		return 0, ErrNoCandles
	}
	return candles[len(candles)-1].Close, nil
}

// LatestRSI returns the RSI of the most recent annotated candle.
func LatestRSI(candles []model.Candle) (float64, bool) {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].RSI != nil {
			return *candles[i].RSI, true
		}
	}
	return 0, false
}

// PercentChange fills each point's Percentage relative to the first close.
// A zero first close leaves all percentages at zero.
func PercentChange(points []model.ClosePoint) []model.ClosePoint {
	out := make([]model.ClosePoint, len(points))
	copy(out, points)
	if len(out) == 0 || out[0].Close == 0 {
		return out
	}
	first := out[0].Close
	for i := range out {
		out[i].Percentage = (out[i].Close - first) / first * 100
	}
	return out
}
