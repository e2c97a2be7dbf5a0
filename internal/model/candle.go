package model

import "time"

// Candle represents a single OHLCV bar, optionally annotated with RSI.
type Candle struct {
	Timestamp int64    `json:"timestamp"` // seconds since epoch
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
	RSI       *float64 `json:"rsi,omitempty"` // nil during the warm-up window
}

// Time returns the bar's timestamp in UTC.
func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// ClosePoint is a close price with its change relative to the first close of its series.
type ClosePoint struct {
	Timestamp  int64   `json:"timestamp"`
	Close      float64 `json:"close"`
	Percentage float64 `json:"percentage"`
}

// YearSeries holds the closes of one calendar year, used for year-over-year comparison.
type YearSeries struct {
	Year int          `json:"year"`
	Data []ClosePoint `json:"data"`
}
