package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"CandleScope/internal/api"
	"CandleScope/internal/metrics"
	"CandleScope/internal/scheduler"
)

var refreshOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the scheduled refresh",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&refreshOnStart, "refresh-on-start", false, "run the refresh task once at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	col, closeCache := newCollector(cfg, m)
	defer closeCache()
	rec := newRecorder(cfg)
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, col, rec, afero.NewOsFs())
	sched.Symbols = cfg.Symbols
	sched.Interval = cfg.Interval
	sched.Years = cfg.Years
	sched.OutputDir = cfg.Output.Dir
	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if refreshOnStart {
		log.Println("[INFO] refresh-on-start enabled, executing refresh now")
		go sched.RunNow()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(col, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[INFO] listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("[INFO] shutting down server gracefully")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
