package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"CandleScope/internal/cache"
	"CandleScope/internal/collector"
	"CandleScope/internal/config"
	"CandleScope/internal/metrics"
	"CandleScope/internal/recorder"
)

var (
	cfgPath string
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "candlescope",
	Short: "Fetch OHLC series, compute RSI and replay them against a trading simulator",
	Long: `CandleScope normalizes Yahoo Finance charts and NSE gold bond prices into
candle series annotated with Wilder RSI.

It can serve the series over HTTP, refresh yearly comparison datasets on a schedule,
export candles to CSV and replay a saved chart while simulating buy and sell orders.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use generated data instead of the live providers")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newCollector wires the fetchers, the response cache and metrics. The returned
// func releases the cache connection.
func newCollector(cfg *config.Config, m *metrics.Metrics) (*collector.Collector, func()) {
	var (
		fetcher collector.Fetcher
		bonds   collector.BondFetcher
	)
	if offline {
		fetcher = &collector.MockFetcher{Price: 100}
		bonds = &collector.MockBondFetcher{}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
		bonds = collector.NewNSEFetcher(cfg.Proxy)
	}

	var c cache.Cache = cache.NewNoopCache()
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("[WARN] init redis cache failed, caching disabled: %v", err)
		} else {
			c = rc
		}
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(collector.NewCachedFetcher(fetcher, c, cfg.Redis.TTL, m), bonds, cfg.RSI.Period, m)
	return col, func() { c.Close() }
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
