package model

import "time"

// Side is the direction of a simulated order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Transaction is one simulated fill at the close of a replayed candle.
type Transaction struct {
	ID        string  `json:"id"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Timestamp int64   `json:"timestamp"` // candle timestamp
	Index     int     `json:"index"`     // candle index in the replayed series
}

// Total returns price times quantity.
func (t Transaction) Total() float64 {
	return t.Price * float64(t.Quantity)
}

// Position is the open simulated holding.
type Position struct {
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// LedgerState is the persisted state of the trading simulator.
type LedgerState struct {
	Symbol       string        `json:"symbol"`
	Position     Position      `json:"position"`
	Transactions []Transaction `json:"transactions"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
