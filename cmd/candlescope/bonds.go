package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"CandleScope/internal/collector"
	"CandleScope/internal/export"
	"CandleScope/internal/metrics"
	"CandleScope/internal/report"
	"CandleScope/internal/scheduler"
)

var (
	bondsYears int
	bondsOut   string
	bondsList  bool
)

var bondsCmd = &cobra.Command{
	Use:   "bonds [SYMBOL]",
	Short: "Compare sovereign gold bond closes year over year",
	Long: `Fetch daily closes of a sovereign gold bond from NSE and group them by calendar year.

Examples:
  candlescope bonds --list
  candlescope bonds SGBFEB27 --years 3 --out data/sgbfeb27.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBonds,
}

func init() {
	rootCmd.AddCommand(bondsCmd)
	bondsCmd.Flags().IntVar(&bondsYears, "years", 4, "previous years to include")
	bondsCmd.Flags().StringVarP(&bondsOut, "out", "o", "", "output JSON file (default: <output.dir>/<symbol>_yearly.json)")
	bondsCmd.Flags().BoolVar(&bondsList, "list", false, "list the known gold bond symbols")
}

func runBonds(cmd *cobra.Command, args []string) error {
	if bondsList || len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(collector.GoldBondSymbols, "\n"))
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(args[0])

	col, closeCache := newCollector(cfg, metrics.New())
	defer closeCache()
	col.Location = collector.IST

	series, err := col.BondYearlySeries(cmd.Context(), symbol, bondsYears)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.FormatYearlySummary(symbol, series))

	if bondsOut == "" && cfg.Output.Dir != "" && len(series) > 0 {
		bondsOut = scheduler.YearlyPath(cfg.Output.Dir, symbol)
	}
	if bondsOut != "" {
		if err := export.SaveYearly(afero.NewOsFs(), bondsOut, series); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dataset written to %s\n", bondsOut)
	}
	return nil
}
