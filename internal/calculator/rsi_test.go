package calculator

import (
	"math"
	"sync"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleScope/internal/model"
)

var referenceCloses = []float64{44, 44.25, 44.5, 43.75, 44.5, 44.75, 45, 45.25, 45.5, 45.75, 46, 46.25, 46.5, 46.75, 47}

func wave(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) + 3*math.Cos(float64(i)*1.7)
	}
	return closes
}

func TestComputeRSI_InsufficientHistory(t *testing.T) {
	rsi, err := ComputeRSI(make([]float64, 10), 14)
	require.NoError(t, err)
	assert.NotNil(t, rsi)
	assert.Empty(t, rsi)

	for n := 0; n <= 14; n++ {
		rsi, err := ComputeRSI(wave(n), 14)
		require.NoError(t, err)
		assert.Empty(t, rsi, "len=%d", n)
	}
}

func TestComputeRSI_OutputLength(t *testing.T) {
	for _, period := range []int{1, 2, 5, 14} {
		for n := 0; n < 40; n++ {
			rsi, err := ComputeRSI(wave(n), period)
			require.NoError(t, err)
			want := n - period - 1
			if want < 0 {
				want = 0
			}
			assert.Len(t, rsi, want, "period=%d len=%d", period, n)
		}
	}
}

func TestComputeRSI_ReferenceSequence(t *testing.T) {
	// 15 closes: the seed consumes all 14 deltas, no smoothing step remains.
	rsi, err := ComputeRSI(referenceCloses, 14)
	require.NoError(t, err)
	assert.Empty(t, rsi)

	// one more close gives exactly one smoothing step
	closes := append(append([]float64{}, referenceCloses...), 47.25)
	rsi, err = ComputeRSI(closes, 14)
	require.NoError(t, err)
	require.Len(t, rsi, 1)
	// avgGain = 52.25/196, avgLoss = 9.75/196
	assert.InDelta(t, 100-975.0/62.0, rsi[0], 1e-9)
}

func TestComputeRSI_MonotonicIncreaseIs100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.5
	}
	closes[10] = closes[9] // flat step is still non-decreasing
	rsi, err := ComputeRSI(closes, 14)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)
	for _, v := range rsi {
		assert.Equal(t, 100.0, v)
	}
}

func TestComputeRSI_MonotonicDecreaseIs0(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi, err := ComputeRSI(closes, 14)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)
	for _, v := range rsi {
		assert.Equal(t, 0.0, v)
	}
}

func TestComputeRSI_ZeroLossAfterSeedLosses(t *testing.T) {
	// losses in the seed decay toward zero but never reach it
	closes := []float64{10, 9, 10, 11, 12, 13, 14}
	rsi, err := ComputeRSI(closes, 2)
	require.NoError(t, err)
	require.Len(t, rsi, 4)
	for i := 1; i < len(rsi); i++ {
		assert.Greater(t, rsi[i], rsi[i-1])
		assert.Less(t, rsi[i], 100.0)
	}
}

func TestComputeRSI_Bounded(t *testing.T) {
	rsi, err := ComputeRSI(wave(250), 14)
	require.NoError(t, err)
	for _, v := range rsi {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestComputeRSI_InvalidPeriod(t *testing.T) {
	for _, period := range []int{0, -3} {
		_, err := ComputeRSI(wave(30), period)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	}
}

func TestComputeRSI_MatchesTalib(t *testing.T) {
	closes := wave(120)
	for _, period := range []int{5, 14} {
		rsi, err := ComputeRSI(closes, period)
		require.NoError(t, err)

		// talib emits the value of each smoothing step at the close that produced it.
		ref := talib.Rsi(closes, period)
		for j, v := range rsi {
			assert.InDelta(t, ref[period+1+j], v, 1e-9, "period=%d index=%d", period, period+1+j)
		}
	}
}

func TestAnnotateRSI_Alignment(t *testing.T) {
	closes := wave(40)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Timestamp: int64(1700000000 + i*86400), Close: c}
	}

	annotated, err := AnnotateRSI(candles, 14)
	require.NoError(t, err)
	require.Len(t, annotated, len(candles))

	rsi, err := ComputeRSI(closes, 14)
	require.NoError(t, err)

	assert.Equal(t, 14, RSIOffset(14))
	for i, c := range annotated {
		if i < 14 || i == len(annotated)-1 {
			assert.Nil(t, c.RSI, "index %d", i)
			continue
		}
		require.NotNil(t, c.RSI, "index %d", i)
		assert.Equal(t, rsi[i-14], *c.RSI)
	}

	for _, c := range candles {
		assert.Nil(t, c.RSI, "input must not be mutated")
	}
}

func TestAnnotateRSI_FirstValueAtPeriod(t *testing.T) {
	closes := append([]float64{}, referenceCloses...)
	closes = append(closes, 47.25)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Close: c}
	}

	annotated, err := AnnotateRSI(candles, 14)
	require.NoError(t, err)
	require.NotNil(t, annotated[14].RSI)
	assert.InDelta(t, 100-975.0/62, *annotated[14].RSI, 1e-9)
	assert.Nil(t, annotated[13].RSI)
	assert.Nil(t, annotated[15].RSI)
}

func TestAnnotateRSI_ShortSeries(t *testing.T) {
	candles := []model.Candle{{Timestamp: 1, Close: 1}, {Timestamp: 2, Close: 2}}
	annotated, err := AnnotateRSI(candles, 14)
	require.NoError(t, err)
	require.Len(t, annotated, 2)
	assert.Nil(t, annotated[0].RSI)
	assert.Nil(t, annotated[1].RSI)

	_, err = AnnotateRSI(candles, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestAnnotateRSI_ClearsStaleValues(t *testing.T) {
	stale := 42.0
	candles := make([]model.Candle, 20)
	for i := range candles {
		candles[i] = model.Candle{Close: float64(100 + i%3), RSI: &stale}
	}

	annotated, err := AnnotateRSI(candles, 14)
	require.NoError(t, err)
	assert.Nil(t, annotated[0].RSI)
	assert.Nil(t, annotated[19].RSI)
	require.NotNil(t, annotated[14].RSI)
	assert.Same(t, &stale, candles[0].RSI, "input must not be mutated")
}

func TestAnnotateRSI_ConcurrentCalls(t *testing.T) {
	closes := wave(200)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Timestamp: int64(i), Close: c}
	}
	pristine := append([]model.Candle(nil), candles...)
	want, err := AnnotateRSI(candles, 14)
	require.NoError(t, err)

	const workers = 16
	results := make([][]model.Candle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := AnnotateRSI(candles, 14)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	wg.Wait()

	for i, out := range results {
		require.Len(t, out, len(want), "worker %d", i)
		for j := range out {
			if want[j].RSI == nil {
				assert.Nil(t, out[j].RSI)
				continue
			}
			require.NotNil(t, out[j].RSI)
			assert.Equal(t, *want[j].RSI, *out[j].RSI)
			assert.NotSame(t, want[j].RSI, out[j].RSI)
		}
	}
	assert.Equal(t, pristine, candles, "input must not be mutated")
}
