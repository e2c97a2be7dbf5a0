package main

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"CandleScope/internal/collector"
	"CandleScope/internal/export"
	"CandleScope/internal/metrics"
	"CandleScope/internal/model"
	"CandleScope/internal/report"
)

var (
	fetchSymbol   string
	fetchInterval string
	fetchDays     int
	fetchYears    int
	fetchCSV      string
	fetchPayload  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a chart, compute RSI and print a summary",
	Long: `Fetch a chart from Yahoo Finance and print its latest price, range and RSI.

Examples:
  candlescope fetch --symbol NIFTY --days 180
  candlescope fetch --symbol SPX --years 2 --csv out/spx.csv
  candlescope fetch --symbol SPX --days 30 --save-payload testdata/spx.json`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchSymbol, "symbol", "s", "", "symbol to fetch (default: first configured symbol)")
	fetchCmd.Flags().StringVarP(&fetchInterval, "interval", "i", "", "bar interval (default: configured interval)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 365, "number of days up to now")
	fetchCmd.Flags().IntVar(&fetchYears, "years", 0, "fetch whole calendar years instead of --days")
	fetchCmd.Flags().StringVar(&fetchCSV, "csv", "", "write the candles to this CSV file")
	fetchCmd.Flags().StringVar(&fetchPayload, "save-payload", "", "write the raw provider payload to this file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbol := fetchSymbol
	if symbol == "" {
		symbol = cfg.Symbols[0]
	}
	interval := fetchInterval
	if interval == "" {
		interval = cfg.Interval
	}

	col, closeCache := newCollector(cfg, metrics.New())
	defer closeCache()
	rec := newRecorder(cfg)
	defer rec.Close()

	ctx := cmd.Context()
	now := time.Now().UTC()
	q := collector.ChartQuery{Symbol: symbol, Period1: now.AddDate(0, 0, -fetchDays), Period2: now, Interval: interval}
	fs := afero.NewOsFs()

	if fetchPayload != "" {
		raw, err := col.Fetcher.FetchChart(ctx, q)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(fs, fetchPayload, raw, 0644); err != nil {
			return fmt.Errorf("save payload: %w", err)
		}
	}

	var candles []model.Candle
	if fetchYears > 0 {
		candles, err = col.CandlesByYear(ctx, symbol, interval, fetchYears)
	} else {
		candles, err = col.Candles(ctx, q)
	}
	if err != nil {
		return err
	}
	if err := rec.RecordCandles(symbol, interval, candles); err != nil {
		return fmt.Errorf("record candles: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatSeriesSummary(symbol, interval, candles))

	if fetchCSV != "" {
		if err := export.SaveCSV(fs, fetchCSV, candles); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "CSV written to %s\n", fetchCSV)
	}
	return nil
}
