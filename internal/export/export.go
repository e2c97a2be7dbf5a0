// Package export writes candle series and yearly datasets to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"CandleScope/internal/model"
)

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume", "rsi"}

// WriteCSV writes candles as CSV with a header row. The rsi column is empty
// for bars without a value.
func WriteCSV(w io.Writer, candles []model.Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range candles {
		rsi := ""
		if c.RSI != nil {
			rsi = f(*c.RSI)
		}
		row := []string{
			strconv.FormatInt(c.Timestamp, 10),
			f(c.Open), f(c.High), f(c.Low), f(c.Close), f(c.Volume),
			rsi,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes candles to path on fs, creating parent directories.
func SaveCSV(fs afero.Fs, path string, candles []model.Candle) error {
	if err := ensureDir(fs, path); err != nil {
		return err
	}
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(file, candles); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// SaveYearly writes the year-over-year dataset as indented JSON.
func SaveYearly(fs afero.Fs, path string, series []model.YearSeries) error {
	if series == nil {
		series = []model.YearSeries{}
	}
	data, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureDir(fs, path); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}

// LoadYearly reads a dataset written by SaveYearly.
func LoadYearly(fs afero.Fs, path string) ([]model.YearSeries, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var series []model.YearSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return series, nil
}

func ensureDir(fs afero.Fs, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return fs.MkdirAll(dir, 0755)
	}
	return nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
