package recorder

import "CandleScope/internal/model"

// Recorder persists fetched series and simulated fills for later analysis.
type Recorder interface {
	RecordCandles(symbol, interval string, candles []model.Candle) error
	RecordTransaction(symbol string, tx model.Transaction) error
	Close() error
}
