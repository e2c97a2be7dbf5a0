package calculator

import (
	"errors"
	"fmt"

	"CandleScope/internal/model"
	"CandleScope/internal/normalizer"
)

// DefaultRSIPeriod is the lookback used when none is configured.
const DefaultRSIPeriod = 14

var ErrInvalidPeriod = errors.New("period must be positive")

// ComputeRSI computes the Wilder-smoothed RSI series over closes.
//
// The first period deltas seed the average gain and loss. Every later close is one
// smoothing step and yields one value, so the result has len(closes)-period-1 values.
// Too little history gives an empty result.
func ComputeRSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(closes) < period+1 {
		return []float64{}, nil
	}

	gains := make([]float64, period)
	losses := make([]float64, period)
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}
	avgGain, err := CalculateSMA(gains, period)
	if err != nil {
		return nil, fmt.Errorf("seed gains: %w", err)
	}
	avgLoss, err := CalculateSMA(losses, period)
	if err != nil {
		return nil, fmt.Errorf("seed losses: %w", err)
	}

	p := float64(period)
	rsi := make([]float64, 0, len(closes)-period-1)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		rsi = append(rsi, rsiValue(avgGain, avgLoss))
	}
	return rsi, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// RSIOffset is the index of the first candle that receives an RSI value.
// Value j of ComputeRSI is attached to candle RSIOffset(period)+j.
func RSIOffset(period int) int {
	return period
}

// AnnotateRSI returns a copy of candles with RSI set on candles [period, len-1).
// Candles before period and the last candle keep a nil RSI. The input slice is left untouched.
func AnnotateRSI(candles []model.Candle, period int) ([]model.Candle, error) {
	values, err := ComputeRSI(normalizer.Closes(candles), period)
	if err != nil {
		return nil, err
	}

	out := make([]model.Candle, len(candles))
	copy(out, candles)
	for i := range out {
		out[i].RSI = nil
	}
	offset := RSIOffset(period)
	for j, v := range values {
		v := v
		out[offset+j].RSI = &v
	}
	return out, nil
}
