// Package sim replays candle series and simulates manual trading against them.
package sim

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"CandleScope/internal/calculator"
	"CandleScope/internal/model"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNoPosition      = errors.New("no open position")
)

// Ledger tracks simulated fills and the resulting position with concurrency safety.
// Every order executes at the close of the latest visible candle.
type Ledger struct {
	mu       sync.Mutex
	state    *model.LedgerState
	fs       afero.Fs
	filePath string // empty disables persistence
}

// NewLedger creates a Ledger, loading state from disk when a file path is given.
// State saved for a different symbol is discarded.
func NewLedger(fs afero.Fs, filePath, symbol string) (*Ledger, error) {
	state := &model.LedgerState{}
	if filePath != "" {
		loaded, err := LoadState(fs, filePath)
		if err != nil {
			return nil, fmt.Errorf("load ledger state: %w", err)
		}
		if loaded.Symbol == symbol {
			state = loaded
		}
	}
	state.Symbol = symbol
	return &Ledger{state: state, fs: fs, filePath: filePath}, nil
}

// Buy adds qty units at the latest visible close and updates the average price.
func (l *Ledger) Buy(visible []model.Candle, qty int) (model.Transaction, error) {
	if qty < 1 {
		return model.Transaction{}, ErrInvalidQuantity
	}
	tx, err := newTransaction(model.SideBuy, visible, qty)
	if err != nil {
		return model.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.state.Position
	totalQty := pos.Quantity + qty
	totalCost := float64(pos.Quantity)*pos.AvgPrice + float64(qty)*tx.Price
	l.state.Position = model.Position{Quantity: totalQty, AvgPrice: totalCost / float64(totalQty)}
	l.record(tx)
	return tx, nil
}

// Sell removes up to qty units at the latest visible close. The average price is kept.
func (l *Ledger) Sell(visible []model.Candle, qty int) (model.Transaction, error) {
	if qty < 1 {
		return model.Transaction{}, ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Position.Quantity == 0 {
		return model.Transaction{}, ErrNoPosition
	}
	qty = min(qty, l.state.Position.Quantity)
	tx, err := newTransaction(model.SideSell, visible, qty)
	if err != nil {
		return model.Transaction{}, err
	}

	l.state.Position.Quantity -= qty
	if l.state.Position.Quantity == 0 {
		l.state.Position.AvgPrice = 0
	}
	l.record(tx)
	return tx, nil
}

// SellAll closes the whole position at the latest visible close.
func (l *Ledger) SellAll(visible []model.Candle) (model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Position.Quantity == 0 {
		return model.Transaction{}, ErrNoPosition
	}
	tx, err := newTransaction(model.SideSell, visible, l.state.Position.Quantity)
	if err != nil {
		return model.Transaction{}, err
	}

	l.state.Position = model.Position{}
	l.record(tx)
	return tx, nil
}

// PnL returns the unrealized profit of the open position at the latest visible close.
func (l *Ledger) PnL(visible []model.Candle) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.state.Position
	if pos.Quantity == 0 {
		return 0
	}
	price, err := calculator.LatestClose(visible)
	if err != nil {
		return 0
	}
	return float64(pos.Quantity)*price - float64(pos.Quantity)*pos.AvgPrice
}

// TotalInvested sums the value of all buys.
func (l *Ledger) TotalInvested() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0.0
	for _, tx := range l.state.Transactions {
		if tx.Side == model.SideBuy {
			total += tx.Total()
		}
	}
	return total
}

// Position returns the open position.
func (l *Ledger) Position() model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Position
}

// Transactions returns a copy of the fill history.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Transaction, len(l.state.Transactions))
	copy(out, l.state.Transactions)
	return out
}

// State returns a copy of the ledger state.
func (l *Ledger) State() model.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := *l.state
	s.Transactions = append([]model.Transaction(nil), l.state.Transactions...)
	return s
}

// Reset clears position and history.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Position = model.Position{}
	l.state.Transactions = nil
	l.save()
}

func (l *Ledger) record(tx model.Transaction) {
	l.state.Transactions = append(l.state.Transactions, tx)
	l.save()
}

func (l *Ledger) save() {
	if l.filePath == "" {
		return
	}
	if err := SaveState(l.fs, l.filePath, l.state); err != nil {
		log.Printf("[ERROR] save ledger state: %v", err)
	}
}

func newTransaction(side model.Side, visible []model.Candle, qty int) (model.Transaction, error) {
	price, err := calculator.LatestClose(visible)
	if err != nil {
		return model.Transaction{}, err
	}
	last := visible[len(visible)-1]
	return model.Transaction{
		ID:        uuid.NewString(),
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Timestamp: last.Timestamp,
		Index:     len(visible) - 1,
	}, nil
}
