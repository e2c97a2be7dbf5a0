package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CandleScope/internal/model"
)

// SQLiteRecorder persists candles and transactions to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol    TEXT    NOT NULL,
			interval  TEXT    NOT NULL,
			timestamp INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			rsi       REAL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, interval, timestamp)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id        TEXT PRIMARY KEY,
			symbol    TEXT    NOT NULL,
			side      TEXT    NOT NULL,
			price     REAL    NOT NULL,
			quantity  INTEGER NOT NULL,
			candle_ts INTEGER NOT NULL,
			candle_ix INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol, candle_ts)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordCandles upserts the series; a re-fetched bar replaces the stored one.
func (r *SQLiteRecorder) RecordCandles(symbol, interval string, candles []model.Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO candles
		(symbol, interval, timestamp, open, high, low, close, volume, rsi, fetched_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, interval, timestamp) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low, close=excluded.close,
			volume=excluded.volume, rsi=excluded.rsi, fetched_at=excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, c := range candles {
		var rsi sql.NullFloat64
		if c.RSI != nil {
			rsi = sql.NullFloat64{Float64: *c.RSI, Valid: true}
		}
		if _, err := stmt.Exec(symbol, interval, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume, rsi, now); err != nil {
			return fmt.Errorf("insert candle %d: %w", c.Timestamp, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTransaction(symbol string, t model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO transactions
		(id, symbol, side, price, quantity, candle_ts, candle_ix, recorded_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, symbol, string(t.Side), t.Price, t.Quantity, t.Timestamp, t.Index, time.Now().Unix(),
	)
	return err
}

// LoadCandles returns the stored series for symbol and interval in time order.
func (r *SQLiteRecorder) LoadCandles(symbol, interval string) ([]model.Candle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, open, high, low, close, volume, rsi
		FROM candles WHERE symbol = ? AND interval = ? ORDER BY timestamp`, symbol, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var c model.Candle
		var rsi sql.NullFloat64
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &rsi); err != nil {
			return nil, err
		}
		if rsi.Valid {
			v := rsi.Float64
			c.RSI = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
