package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CandleScope/internal/calculator"
	"CandleScope/internal/model"
)

// DefaultStep is the time between two replayed candles.
const DefaultStep = time.Second

// Replay reveals a candle series one bar at a time.
// While inactive the whole series is visible.
type Replay struct {
	mu      sync.Mutex
	candles []model.Candle
	index   int
	active  bool
	paused  bool
}

// NewReplay creates a Replay over candles. The slice is not copied and must not be modified.
func NewReplay(candles []model.Candle) *Replay {
	return &Replay{candles: candles}
}

// Start begins a replay from the first candle.
func (r *Replay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.candles) == 0 {
		return calculator.ErrNoCandles
	}
	r.index = 0
	r.active = true
	r.paused = false
	return nil
}

func (r *Replay) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.paused = true
	}
}

func (r *Replay) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

// Reset rewinds to the first candle without leaving replay mode.
func (r *Replay) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = 0
	r.paused = false
}

// Seek jumps to candle i.
func (r *Replay) Seek(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return fmt.Errorf("seek: replay not active")
	}
	if i < 0 || i >= len(r.candles) {
		return fmt.Errorf("seek: index %d out of range [0, %d)", i, len(r.candles))
	}
	r.index = i
	return nil
}

// End jumps to the last candle.
func (r *Replay) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.index = len(r.candles) - 1
	}
}

// Stop leaves replay mode.
func (r *Replay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.paused = false
	r.index = 0
}

// Step advances one candle. Stepping past the last candle ends the replay.
// It reports whether the replay is still active.
func (r *Replay) Step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	if r.paused {
		return true
	}
	if r.index >= len(r.candles)-1 {
		r.active = false
		r.paused = false
		return false
	}
	r.index++
	return true
}

// Visible returns the candles revealed so far.
func (r *Replay) Visible() []model.Candle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return r.candles
	}
	return r.candles[:r.index+1]
}

// Progress returns the number of visible candles and the series length.
func (r *Replay) Progress() (current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return len(r.candles), len(r.candles)
	}
	return r.index + 1, len(r.candles)
}

func (r *Replay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Replay) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Run starts the replay and advances it every step until the series is exhausted,
// Stop is called or ctx is done. onStep receives the visible candles after each advance,
// including the initial first candle. Paused ticks do not call onStep.
func (r *Replay) Run(ctx context.Context, step time.Duration, onStep func(visible []model.Candle)) error {
	if step <= 0 {
		step = DefaultStep
	}
	if err := r.Start(); err != nil {
		return err
	}
	onStep(r.Visible())

	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.Paused() {
				continue
			}
			if !r.Step() {
				return nil
			}
			onStep(r.Visible())
		}
	}
}
