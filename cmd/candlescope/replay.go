package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"CandleScope/internal/calculator"
	"CandleScope/internal/model"
	"CandleScope/internal/normalizer"
	"CandleScope/internal/recorder"
	"CandleScope/internal/report"
	"CandleScope/internal/sim"
)

var (
	replaySymbol   string
	replayInterval string
	replayStored   bool
	replayTrades   []string
	replayStep     time.Duration
	replayInstant  bool
	replayReset    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [PAYLOAD]",
	Short: "Replay a chart and simulate trades against it",
	Long: `Replay a saved chart payload (generic quote or Yahoo chart JSON), or the candles
stored in SQLite by fetch and serve, one candle per step.
Scripted trades execute at the close of the candle at their index. pause, seek and end
control the replay itself.

Examples:
  candlescope replay testdata/spx.json --symbol SPX --instant --trade buy:10@20 --trade sellall@60
  candlescope replay testdata/nifty.json --step 250ms --trade buy:5@3 --trade pause:2s@5 --trade sell:2@9
  candlescope replay --stored --symbol NIFTY --interval 1d --trade seek:200@0 --trade buy:1@200 --trade end@250`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replaySymbol, "symbol", "s", "REPLAY", "symbol the ledger is kept under")
	replayCmd.Flags().StringVarP(&replayInterval, "interval", "i", "", "interval of the stored candles (default: configured interval)")
	replayCmd.Flags().BoolVar(&replayStored, "stored", false, "replay the candles stored in database.sqlite_path")
	replayCmd.Flags().StringArrayVarP(&replayTrades, "trade", "t", nil,
		"scripted action: buy:N@index, sell:N@index, sellall@index, pause:DURATION@index, seek:TARGET@index or end@index")
	replayCmd.Flags().DurationVar(&replayStep, "step", 0, "delay between candles (default: replay.step)")
	replayCmd.Flags().BoolVar(&replayInstant, "instant", false, "advance without delay")
	replayCmd.Flags().BoolVar(&replayReset, "reset", false, "clear the saved ledger before replaying")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	actions, err := parseTrades(replayTrades)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	var (
		candles []model.Candle
		rec     recorder.Recorder
	)
	switch {
	case replayStored:
		if cfg.Database.SQLitePath == "" {
			return fmt.Errorf("--stored needs database.sqlite_path")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		rec = sr
		interval := replayInterval
		if interval == "" {
			interval = cfg.Interval
		}
		candles, err = loadStored(sr, replaySymbol, interval, cfg.RSI.Period)
		if err != nil {
			sr.Close()
			return err
		}
	case len(args) == 1:
		candles, err = loadPayload(fs, args[0], cfg.RSI.Period)
		if err != nil {
			return err
		}
		rec = newRecorder(cfg)
	default:
		return fmt.Errorf("either a payload file or --stored is required")
	}
	defer rec.Close()

	ledger, err := sim.NewLedger(fs, cfg.Sim.StateFile, replaySymbol)
	if err != nil {
		return err
	}
	if replayReset {
		ledger.Reset()
	}

	step := replayStep
	if step <= 0 {
		step = cfg.Replay.Step
	}
	if replayInstant {
		step = 0
	}

	visible, err := simulate(cmd.Context(), candles, ledger, actions, step, func(tx model.Transaction) {
		if err := rec.RecordTransaction(replaySymbol, tx); err != nil {
			log.Printf("[ERROR] record transaction: %v", err)
		}
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.FormatSeriesSummary(replaySymbol, "replay", visible))
	fmt.Fprintln(out)
	fmt.Fprint(out, report.FormatLedger(ledger.State(), visible, ledger.PnL(visible), ledger.TotalInvested()))
	return nil
}

// loadPayload reads a saved payload, drops incomplete bars and annotates RSI.
func loadPayload(fs afero.Fs, path string, period int) ([]model.Candle, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	candles, err := normalizer.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse payload %s: %w", path, err)
	}
	return calculator.AnnotateRSI(normalizer.DropIncomplete(candles), period)
}

type candleStore interface {
	LoadCandles(symbol, interval string) ([]model.Candle, error)
}

// loadStored reads recorded candles and recomputes RSI with the configured period.
func loadStored(store candleStore, symbol, interval string, period int) ([]model.Candle, error) {
	candles, err := store.LoadCandles(symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("load stored candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no stored candles for %s (%s)", symbol, interval)
	}
	return calculator.AnnotateRSI(candles, period)
}

// simulate replays candles and executes the scripted actions as their index becomes
// visible. Trades run before a seek or end at the same index. A non-positive step
// advances without delay. It returns the candles revealed by the end of the replay.
func simulate(ctx context.Context, candles []model.Candle, ledger *sim.Ledger, actions map[int][]tradeAction, step time.Duration, onFill func(model.Transaction)) ([]model.Candle, error) {
	r := sim.NewReplay(candles)
	var visible []model.Candle
	var onStep func(v []model.Candle)
	onStep = func(v []model.Candle) {
		visible = v
		at := len(v) - 1
		var jump *tradeAction
		for _, a := range actions[at] {
			switch {
			case a.control():
				jump = &a
			case a.Kind == "pause":
				r.Pause()
				time.AfterFunc(a.Hold, r.Resume)
				log.Printf("[INFO] paused at candle %d for %s", at, a.Hold)
			default:
				tx, err := execute(ledger, v, a)
				if err != nil {
					log.Printf("[WARN] %s at %d: %v", a.Kind, a.Index, err)
					continue
				}
				cur, total := r.Progress()
				log.Printf("[INFO] %s %d @ %.2f (candle %d/%d)", tx.Side, tx.Quantity, tx.Price, cur, total)
				onFill(tx)
			}
		}
		if jump == nil {
			return
		}
		if jump.Kind == "end" {
			if cur, total := r.Progress(); cur == total {
				return
			}
			r.End()
		} else if err := r.Seek(jump.Target); err != nil {
			log.Printf("[WARN] seek at %d: %v", at, err)
			return
		}
		onStep(r.Visible())
	}

	if step > 0 {
		if err := r.Run(ctx, step, onStep); err != nil {
			return nil, err
		}
		return visible, nil
	}

	if err := r.Start(); err != nil {
		return nil, err
	}
	onStep(r.Visible())
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.Paused() {
			select {
			case <-ctx.Done():
			case <-time.After(time.Millisecond):
			}
			continue
		}
		if !r.Step() {
			break
		}
		onStep(r.Visible())
	}
	return visible, nil
}

func execute(l *sim.Ledger, visible []model.Candle, a tradeAction) (model.Transaction, error) {
	switch a.Kind {
	case "buy":
		return l.Buy(visible, a.Quantity)
	case "sell":
		return l.Sell(visible, a.Quantity)
	default:
		return l.SellAll(visible)
	}
}
