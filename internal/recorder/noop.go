package recorder

import "CandleScope/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCandles(_, _ string, _ []model.Candle) error      { return nil }
func (n *NoopRecorder) RecordTransaction(_ string, _ model.Transaction) error { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
