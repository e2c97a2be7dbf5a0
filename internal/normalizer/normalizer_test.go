package normalizer

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleScope/internal/model"
)

const genericJSON = `{
  "timestamp": [1704067200, 1704067260, 1704067320],
  "indicators": {
    "quote": [
      {
        "low": [150.25, 150.30, 150.28],
        "volume": [1000000, 1200000, 950000],
        "high": [150.35, 150.40, 150.38],
        "close": [150.30, 150.35, 150.32],
        "open": [150.28, 150.32, 150.30]
      }
    ]
  }
}`

const chartJSON = `{
  "chart": {
    "result": [
      {
        "meta": {"symbol": "HDFCBANK.NS", "currency": "INR"},
        "timestamp": [1704153600, 1704240000],
        "indicators": {
          "quote": [
            {"open": [1690.0, 1700.5], "high": [1710.0, 1712.0], "low": [1685.0, 1695.0],
             "close": [1705.5, 1698.0], "volume": [4000000, 3500000]}
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestParse_Generic(t *testing.T) {
	candles, err := Parse([]byte(genericJSON))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, model.Candle{
		Timestamp: 1704067200, Open: 150.28, High: 150.35, Low: 150.25, Close: 150.30, Volume: 1000000,
	}, candles[0])
	assert.Equal(t, int64(1704067320), candles[2].Timestamp)
	assert.Equal(t, 150.32, candles[2].Close)
	for _, c := range candles {
		assert.Nil(t, c.RSI)
	}
}

func TestParse_ProviderChart(t *testing.T) {
	candles, err := Parse([]byte(chartJSON))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1704153600), candles[0].Timestamp)
	assert.Equal(t, 1698.0, candles[1].Close)
	assert.Equal(t, 3500000.0, candles[1].Volume)
}

func TestDecode_SelectsShape(t *testing.T) {
	p, err := Decode([]byte(chartJSON))
	require.NoError(t, err)
	assert.IsType(t, model.ChartEnvelope{}, p)

	p, err = Decode([]byte(genericJSON))
	require.NoError(t, err)
	assert.IsType(t, model.GenericPayload{}, p)
}

func TestNormalizeProviderChart_EmptyResult(t *testing.T) {
	for name, raw := range map[string]string{
		"empty result":  `{"chart": {"result": [], "error": null}}`,
		"absent result": `{"chart": {}}`,
		"null result":   `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			candles, err := Parse([]byte(raw))
			require.NoError(t, err)
			assert.NotNil(t, candles)
			assert.Empty(t, candles)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"foo": 1}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnrecognizedShape)

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestNormalizeGeneric_LengthMismatchFailsFast(t *testing.T) {
	raw := `{
	  "timestamp": [1, 2, 3, 4, 5, 6],
	  "indicators": {"quote": [{
	    "open":   [1, 2, 3, 4, 5, 6],
	    "high":   [1, 2, 3, 4, 5, 6],
	    "low":    [1, 2, 3, 4, 5, 6],
	    "close":  [1, 2, 3, 4, 5],
	    "volume": [1, 2, 3, 4, 5, 6]
	  }]}
	}`
	candles, err := Parse([]byte(raw))
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "close has 5 values, timestamp has 6")
	assert.Nil(t, candles)
}

func TestNormalizeGeneric_MissingQuote(t *testing.T) {
	_, err := Parse([]byte(`{"timestamp": [1, 2], "indicators": {"quote": []}}`))
	assert.ErrorIs(t, err, ErrMissingQuote)

	candles, err := Parse([]byte(`{"timestamp": [], "indicators": {"quote": []}}`))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestNormalize_NullsBecomeNaN(t *testing.T) {
	raw := `{
	  "timestamp": [10, 20, 30],
	  "indicators": {"quote": [{
	    "open":   [1.0, null, 3.0],
	    "high":   [1.5, null, 3.5],
	    "low":    [0.5, null, 2.5],
	    "close":  [1.2, null, 3.2],
	    "volume": [100, null, null]
	  }]}
	}`
	candles, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.True(t, math.IsNaN(candles[1].Close))
	assert.True(t, math.IsNaN(candles[2].Volume))

	kept := DropIncomplete(candles)
	require.Len(t, kept, 2)
	assert.Equal(t, int64(10), kept[0].Timestamp)
	assert.Equal(t, int64(30), kept[1].Timestamp)
	assert.Equal(t, 0.0, kept[1].Volume)
}

func TestNormalize_PreservesOrderAndLength(t *testing.T) {
	raw := `{
	  "timestamp": [300, 100, 200, 100],
	  "indicators": {"quote": [{
	    "open": [3, 1, 2, 1], "high": [3, 1, 2, 1], "low": [3, 1, 2, 1],
	    "close": [3, 1, 2, 1], "volume": [0, 0, 0, 0]
	  }]}
	}`
	candles, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, candles, 4)
	assert.Equal(t, []int64{300, 100, 200, 100},
		[]int64{candles[0].Timestamp, candles[1].Timestamp, candles[2].Timestamp, candles[3].Timestamp})
	assert.Equal(t, []float64{3, 1, 2, 1}, Closes(candles))
}

func TestParse_Idempotent(t *testing.T) {
	first, err := Parse([]byte(chartJSON))
	require.NoError(t, err)
	second, err := Parse([]byte(chartJSON))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// results do not share backing arrays
	first[0].Close = -1
	assert.Equal(t, 1705.5, second[0].Close)
}

func TestParse_ConcurrentCallsShareNothing(t *testing.T) {
	raw := []byte(chartJSON)
	pristine := bytes.Clone(raw)
	want, err := Parse(raw)
	require.NoError(t, err)

	const workers = 16
	results := make([][]model.Candle, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = Parse(raw)
			if errs[i] == nil {
				results[i][0].Close = float64(-i)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, float64(-i), results[i][0].Close)
		assert.Equal(t, want[1:], results[i][1:])
	}
	assert.Equal(t, pristine, raw, "input bytes must not be modified")
	assert.Equal(t, 1705.5, want[0].Close)
}
