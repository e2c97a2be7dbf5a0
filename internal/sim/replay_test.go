package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleScope/internal/calculator"
	"CandleScope/internal/model"
)

func TestReplay_Lifecycle(t *testing.T) {
	candles := series(1, 2, 3, 4)
	r := NewReplay(candles)

	assert.Len(t, r.Visible(), 4, "inactive replay shows everything")
	require.NoError(t, r.Start())
	assert.Len(t, r.Visible(), 1)

	assert.True(t, r.Step())
	assert.True(t, r.Step())
	cur, total := r.Progress()
	assert.Equal(t, 3, cur)
	assert.Equal(t, 4, total)

	r.Pause()
	assert.True(t, r.Paused())
	assert.True(t, r.Step())
	assert.Len(t, r.Visible(), 3, "paused replay does not advance")
	r.Resume()

	require.NoError(t, r.Seek(1))
	assert.Len(t, r.Visible(), 2)
	assert.Error(t, r.Seek(4))
	assert.Error(t, r.Seek(-1))

	r.End()
	assert.Len(t, r.Visible(), 4)
	assert.False(t, r.Step(), "stepping past the end finishes the replay")
	assert.False(t, r.Active())
	assert.Len(t, r.Visible(), 4)

	require.NoError(t, r.Start())
	r.Step()
	r.Reset()
	assert.True(t, r.Active())
	assert.Len(t, r.Visible(), 1)

	r.Stop()
	assert.False(t, r.Active())
	assert.Error(t, r.Seek(0))
}

func TestReplay_Empty(t *testing.T) {
	r := NewReplay(nil)
	assert.ErrorIs(t, r.Start(), calculator.ErrNoCandles)
	err := r.Run(context.Background(), time.Millisecond, func([]model.Candle) {})
	assert.ErrorIs(t, err, calculator.ErrNoCandles)
}

func TestReplay_Run(t *testing.T) {
	r := NewReplay(series(1, 2, 3))
	var seen []int
	err := r.Run(context.Background(), time.Millisecond, func(visible []model.Candle) {
		seen = append(seen, len(visible))
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.False(t, r.Active())
}

func TestReplay_RunCancelled(t *testing.T) {
	r := NewReplay(series(1, 2, 3))
	ctx, cancel := context.WithCancel(context.Background())
	err := r.Run(ctx, time.Hour, func([]model.Candle) { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplay_TradeAtVisibleClose(t *testing.T) {
	r := NewReplay(series(10, 11, 12, 13))
	l, err := NewLedger(nil, "", "TEST")
	require.NoError(t, err)

	require.NoError(t, r.Start())
	r.Step()
	tx, err := l.Buy(r.Visible(), 1)
	require.NoError(t, err)
	assert.Equal(t, 11.0, tx.Price)
	assert.Equal(t, 1, tx.Index)
}
