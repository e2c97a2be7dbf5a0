package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"

	"CandleScope/internal/collector"
	"CandleScope/internal/export"
	"CandleScope/internal/recorder"
)

// Scheduler runs the periodic data refresh.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Fs        afero.Fs
	Symbols   []string
	Interval  string
	Years     int
	OutputDir string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, fs afero.Fs) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Fs:        fs,
		Interval:  "1d",
		OutputDir: "data",
		Ctx:       ctx,
	}
}

// RegisterRefresh registers the refresh task on the given cron spec.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the refresh task immediately and reports how many symbols failed.
func (s *Scheduler) RunNow() int {
	return s.refresh()
}

func (s *Scheduler) refreshTask() {
	s.refresh()
}

func (s *Scheduler) refresh() int {
	log.Printf("[INFO] running refresh for %d symbols", len(s.Symbols))
	failed := 0
	for _, symbol := range s.Symbols {
		if err := s.refreshSymbol(symbol); err != nil {
			log.Printf("[ERROR] refresh %s: %v", symbol, err)
			failed++
		}
	}
	return failed
}

func (s *Scheduler) refreshSymbol(symbol string) error {
	ctx, cancel := context.WithTimeout(s.Ctx, 2*time.Minute)
	defer cancel()

	candles, err := s.Collector.CandlesByYear(ctx, symbol, s.Interval, s.Years)
	if err != nil {
		return fmt.Errorf("collect candles: %w", err)
	}
	if err := s.Recorder.RecordCandles(symbol, s.Interval, candles); err != nil {
		return fmt.Errorf("record candles: %w", err)
	}

	series, err := s.Collector.YearlySeries(ctx, symbol, s.Years)
	if err != nil {
		return fmt.Errorf("collect yearly: %w", err)
	}
	path := YearlyPath(s.OutputDir, symbol)
	if err := export.SaveYearly(s.Fs, path, series); err != nil {
		return fmt.Errorf("save yearly: %w", err)
	}

	log.Printf("[INFO] refreshed %s: %d candles, %d years -> %s", symbol, len(candles), len(series), path)
	return nil
}

// YearlyPath is where the yearly dataset of symbol is written under dir.
func YearlyPath(dir, symbol string) string {
	name := strings.NewReplacer("^", "", "/", "_", " ", "_").Replace(strings.ToLower(symbol))
	return filepath.Join(dir, name+"_yearly.json")
}
