// Package api serves normalized candles and yearly datasets over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"CandleScope/internal/collector"
	"CandleScope/internal/metrics"
	"CandleScope/internal/model"
)

const (
	defaultYears = 4
	maxYears     = 10
	nseDate      = "02-01-2006"
)

type server struct {
	collector *collector.Collector
}

// NewRouter sets up the HTTP routes. The metrics handler is mounted on /metrics when m is non-nil.
func NewRouter(c *collector.Collector, m *metrics.Metrics) *http.ServeMux {
	s := &server{collector: c}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/yahoo-finance", s.handleChart)
	mux.HandleFunc("GET /api/nse-gold-bonds", s.handleBonds)
	mux.HandleFunc("GET /api/yearly", s.handleYearly)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

// handleChart returns the RSI-annotated candles for symbol between period1 and period2 (unix seconds).
func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol, p1, p2, interval := q.Get("symbol"), q.Get("period1"), q.Get("period2"), q.Get("interval")
	if symbol == "" || p1 == "" || p2 == "" || interval == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	from, err1 := strconv.ParseInt(p1, 10, 64)
	to, err2 := strconv.ParseInt(p2, 10, 64)
	if err1 != nil || err2 != nil || to < from {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}

	candles, err := s.collector.Candles(r.Context(), collector.ChartQuery{
		Symbol:   symbol,
		Period1:  time.Unix(from, 0).UTC(),
		Period2:  time.Unix(to, 0).UTC(),
		Interval: interval,
	})
	if err != nil {
		log.Printf("[ERROR] chart %s: %v", symbol, err)
		writeError(w, upstreamStatus(err), "Failed to fetch data from Yahoo Finance")
		return
	}
	if candles == nil {
		candles = []model.Candle{}
	}
	writeJSON(w, http.StatusOK, candles)
}

// handleBonds returns the NSE closes for a gold bond between fromDate and toDate (DD-MM-YYYY).
func (s *server) handleBonds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol, fromStr, toStr := q.Get("symbol"), q.Get("fromDate"), q.Get("toDate")
	if symbol == "" || fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: symbol, fromDate, toDate")
		return
	}
	from, err1 := time.ParseInLocation(nseDate, fromStr, collector.IST)
	to, err2 := time.ParseInLocation(nseDate, toStr, collector.IST)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "Dates must be DD-MM-YYYY")
		return
	}

	points, err := s.collector.BondCloses(r.Context(), symbol, from, to)
	if err != nil {
		log.Printf("[ERROR] bonds %s: %v", symbol, err)
		writeError(w, upstreamStatus(err), "Failed to fetch data from NSE")
		return
	}
	if points == nil {
		points = []model.ClosePoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": points})
}

// handleYearly returns the year-over-year dataset. source=nse reads a gold bond instead of a chart.
func (s *server) handleYearly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := q.Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	years := defaultYears
	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxYears {
			writeError(w, http.StatusBadRequest, "years must be between 0 and 10")
			return
		}
		years = n
	}

	var (
		series []model.YearSeries
		err    error
	)
	switch q.Get("source") {
	case "", "yahoo":
		series, err = s.collector.YearlySeries(r.Context(), symbol, years)
	case "nse":
		series, err = s.collector.BondYearlySeries(r.Context(), symbol, years)
	default:
		writeError(w, http.StatusBadRequest, "Unknown source")
		return
	}
	if err != nil {
		log.Printf("[ERROR] yearly %s: %v", symbol, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch yearly data")
		return
	}
	if series == nil {
		series = []model.YearSeries{}
	}
	writeJSON(w, http.StatusOK, series)
}

// upstreamStatus forwards the provider's error status and maps every other failure to 502.
func upstreamStatus(err error) int {
	var se *collector.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code <= 599 {
		return se.Code
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
