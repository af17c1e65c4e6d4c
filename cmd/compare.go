// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/quantpanel/qp-api/common"
	"github.com/quantpanel/qp-api/compare"
	"github.com/quantpanel/qp-api/data"
	"github.com/quantpanel/qp-api/database"
	"github.com/quantpanel/qp-api/metrics"
	"github.com/quantpanel/qp-api/portfolio"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var compareCmdUser string

func init() {
	compareCmd.Flags().StringVarP(&compareCmdUser, "user", "u", "", "User whose saved portfolios may be referenced")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare [symbols...]",
	Short: "Compare assets and portfolios from the command line",
	Long: `Compare resolves the given tickers, ISINs and portfolio references and
prints the metrics panel. A trailing currency (e.g. EUR) or period (e.g. 5Y)
restricts the comparison.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		ctx := context.Background()

		symbols, currency, period, err := compare.ExtractOverrides(args)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid input")
		}

		records := make(map[string]*portfolio.Record)
		if compareCmdUser != "" {
			if viper.GetString("database.url") == "" {
				log.Fatal().Msg("--user requires database.url to be configured")
			}
			if err := database.Connect(); err != nil {
				log.Fatal().Err(err).Msg("could not connect to database")
			}
			records, err = portfolio.NewPgxStore().Portfolios(ctx, compareCmdUser)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load portfolios")
			}
		}

		classified, err := compare.ClassifyAll(symbols, portfolio.KnownIDs(records))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid input")
		}

		manager := data.GetManagerInstance()
		result, err := compare.NewBuilder(manager).Build(ctx, classified, records, currency, period)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build comparison set")
		}

		panel, err := metrics.NewEngine(manager).Run(ctx, result)
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute metrics")
		}

		printPanel(panel)
	},
}

func printPanel(panel *metrics.Panel) {
	fmt.Printf("Currency: %s    Risk free rate: %s", panel.Currency, pct(&panel.RiskFreeRate))
	if panel.RiskFreeFallback {
		fmt.Printf(" (static fallback)")
	}
	fmt.Println()
	if !panel.Begin.IsZero() {
		fmt.Printf("Period: %s to %s\n", panel.Begin.Format("2006-01-02"), panel.End.Format("2006-01-02"))
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "CAGR", "Vol", "Sharpe", "Sortino", "Max DD", "Calmar", "VaR95", "CVaR95", "Div Yield"})
	for _, row := range panel.Rows {
		table.Append([]string{
			row.Label,
			pct(row.CAGR),
			pct(row.Volatility),
			num(row.Sharpe),
			num(row.Sortino),
			pct(row.MaxDrawdown),
			num(row.Calmar),
			pct(row.VaR95),
			pct(row.CVaR95),
			pct(row.DividendYield),
		})
	}
	table.Render()

	if panel.Correlations != nil && len(panel.Correlations.Labels) > 0 {
		fmt.Println()
		corr := tablewriter.NewWriter(os.Stdout)
		corr.SetHeader(append([]string{"Correlation"}, panel.Correlations.Labels...))
		for ii, label := range panel.Correlations.Labels {
			cells := make([]string, 0, len(panel.Correlations.Labels)+1)
			cells = append(cells, label)
			for jj := range panel.Correlations.Labels {
				cells = append(cells, num(panel.Correlations.Cells[ii][jj]))
			}
			corr.Append(cells)
		}
		corr.Render()
	}

	for _, warning := range panel.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
}

func pct(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func num(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.2f", *v)
}
