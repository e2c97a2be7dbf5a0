package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"CandleScope/internal/export"
	"CandleScope/internal/metrics"
	"CandleScope/internal/report"
	"CandleScope/internal/scheduler"
)

var (
	yearlySymbol string
	yearlyYears  int
	yearlyOut    string
)

var yearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Build the year-over-year comparison dataset for a symbol",
	RunE:  runYearly,
}

func init() {
	rootCmd.AddCommand(yearlyCmd)
	yearlyCmd.Flags().StringVarP(&yearlySymbol, "symbol", "s", "", "symbol (default: first configured symbol)")
	yearlyCmd.Flags().IntVar(&yearlyYears, "years", -1, "previous years to include (default: configured years)")
	yearlyCmd.Flags().StringVarP(&yearlyOut, "out", "o", "", "output JSON file (default: <output.dir>/<symbol>_yearly.json)")
}

func runYearly(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbol := yearlySymbol
	if symbol == "" {
		symbol = cfg.Symbols[0]
	}
	years := yearlyYears
	if years < 0 {
		years = cfg.Years
	}
	out := yearlyOut
	if out == "" {
		out = scheduler.YearlyPath(cfg.Output.Dir, symbol)
	}

	col, closeCache := newCollector(cfg, metrics.New())
	defer closeCache()

	series, err := col.YearlySeries(cmd.Context(), symbol, years)
	if err != nil {
		return err
	}
	if err := export.SaveYearly(afero.NewOsFs(), out, series); err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatYearlySummary(symbol, series))
	fmt.Fprintf(cmd.OutOrStdout(), "Dataset written to %s\n", out)
	return nil
}
