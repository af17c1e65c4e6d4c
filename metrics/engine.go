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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantpanel/qp-api/compare"
	"github.com/quantpanel/qp-api/data"
	"github.com/quantpanel/qp-api/dataframe"
	"github.com/quantpanel/qp-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// MarketData is the slice of the data manager the engine needs
type MarketData interface {
	GetHistory(ctx context.Context, ticker string, currency string, begin time.Time, end time.Time) (*dataframe.DataFrame, *data.HistoryMeta, error)
	DividendYield(ctx context.Context, ticker string) (float64, error)
	RiskFreeRate(ctx context.Context, currency string, asOf time.Time, horizonYears int) (float64, bool, error)
}

// Row is one entity's metrics. Cells are pointers: a null cell means the
// value could not be computed, never that it is zero.
type Row struct {
	Label         string   `json:"label"`
	Identifier    string   `json:"identifier"`
	Kind          string   `json:"kind"`
	CAGR          *float64 `json:"cagr"`
	Volatility    *float64 `json:"volatility"`
	Sharpe        *float64 `json:"sharpe"`
	Sortino       *float64 `json:"sortino"`
	MaxDrawdown   *float64 `json:"maxDrawdown"`
	Calmar        *float64 `json:"calmar"`
	VaR95         *float64 `json:"var95"`
	CVaR95        *float64 `json:"cvar95"`
	DividendYield *float64 `json:"dividendYield"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Panel is the complete result of a comparison: one row per entity in input
// order, plus the correlation matrix and the rate context the ratios used
type Panel struct {
	PanelID          string             `json:"panelId"`
	Currency         string             `json:"currency"`
	Begin            time.Time          `json:"begin"`
	End              time.Time          `json:"end"`
	RiskFreeRate     float64            `json:"riskFreeRate"`
	RiskFreeFallback bool               `json:"riskFreeFallback"`
	Rows             []*Row             `json:"rows"`
	Correlations     *CorrelationMatrix `json:"correlations"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// Engine computes metric panels from resolved comparison sets
type Engine struct {
	market MarketData
}

func NewEngine(market MarketData) *Engine {
	return &Engine{market: market}
}

// entitySeries is everything the row computations need for one entity
type entitySeries struct {
	returns   []float64
	wealth    []float64
	frequency dataframe.Frequency
	frame     *dataframe.DataFrame
}

// Run computes the full metrics panel for a comparison set. Rows compute in
// parallel but the panel preserves the input order of the set; a failed
// entity yields a row of nulls and a warning, never a failed panel.
func (e *Engine) Run(ctx context.Context, set *compare.Result) (*Panel, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "metrics.Run")
	defer span.End()

	panel := &Panel{
		PanelID:  uuid.New().String(),
		Currency: set.Currency,
		Begin:    set.Begin,
		End:      set.End,
		Rows:     make([]*Row, len(set.Entities)),
		Warnings: append([]string{}, set.Warnings...),
	}

	rate, fallback, err := e.market.RiskFreeRate(ctx, set.Currency, time.Now(), horizonYears(set.Begin, set.End))
	if err != nil {
		log.Warn().Err(err).Str("Currency", set.Currency).Msg("no risk free rate available; ratio metrics use 0")
		panel.Warnings = append(panel.Warnings,
			fmt.Sprintf("no risk free rate available for %s; Sharpe and Sortino assume 0", set.Currency))
	}
	panel.RiskFreeRate = rate
	panel.RiskFreeFallback = fallback

	labels := make([]string, len(set.Entities))
	frames := make([]*dataframe.DataFrame, len(set.Entities))

	var wg sync.WaitGroup
	for idx, entity := range set.Entities {
		idx := idx
		entity := entity
		labels[idx] = entity.Label()

		wg.Add(1)
		go func() {
			defer wg.Done()

			row := &Row{
				Label:      entity.Label(),
				Identifier: entity.Identifier(),
				Kind:       string(entity.Kind),
			}
			panel.Rows[idx] = row

			series, err := e.loadSeries(ctx, entity, set)
			if err != nil {
				log.Warn().Err(err).Str("Entity", entity.Identifier()).Msg("skipping entity, market data unavailable")
				row.Warnings = append(row.Warnings, err.Error())
				row.DividendYield = e.dividendYield(ctx, entity, row)
				return
			}

			frames[idx] = series.frame
			e.fillRow(ctx, row, entity, series, rate)
		}()
	}
	wg.Wait()

	panel.Correlations = Correlate(labels, frames)
	panel.Warnings = append(panel.Warnings, panel.Correlations.Warnings...)

	return panel, nil
}

func (e *Engine) fillRow(ctx context.Context, row *Row, entity *compare.Entity, series *entitySeries, riskFree float64) {
	ppy := series.frequency.PeriodsPerYear()

	row.CAGR = CAGR(series.wealth, ppy)
	row.Volatility = Volatility(series.returns, ppy)
	row.Sharpe = Sharpe(row.CAGR, row.Volatility, riskFree)
	row.Sortino = Sortino(row.CAGR, series.returns, ppy, riskFree)
	row.MaxDrawdown = MaxDrawdown(series.wealth)
	row.Calmar = Calmar(row.CAGR, row.MaxDrawdown)
	row.VaR95 = VaR95(series.returns)
	row.CVaR95 = CVaR95(series.returns)
	row.DividendYield = e.dividendYield(ctx, entity, row)

	for _, cell := range []struct {
		metric string
		value  *float64
	}{
		{"cagr", row.CAGR},
		{"volatility", row.Volatility},
		{"sharpe", row.Sharpe},
		{"sortino", row.Sortino},
		{"maxDrawdown", row.MaxDrawdown},
		{"calmar", row.Calmar},
		{"var95", row.VaR95},
		{"cvar95", row.CVaR95},
	} {
		if cell.value == nil {
			cerr := &ComputationError{
				Entity: entity.Identifier(),
				Metric: cell.metric,
				Msg:    "not defined for this series",
			}
			row.Warnings = append(row.Warnings, cerr.Error())
		}
	}
}

// loadSeries fetches and aligns the price history behind an entity and
// reduces it to a return series and wealth curve
func (e *Engine) loadSeries(ctx context.Context, entity *compare.Entity, set *compare.Result) (*entitySeries, error) {
	if entity.Kind == compare.EntityAsset {
		df, _, err := e.market.GetHistory(ctx, entity.Ticker, set.Currency, set.Begin, set.End)
		if err != nil {
			return nil, &DataError{Entity: entity.Identifier(), Err: err}
		}

		prices := df.Col(entity.Ticker)
		returns := PeriodReturns(prices)
		if len(returns) == 0 {
			return nil, &DataError{Entity: entity.Identifier(), Err: data.ErrEmptySeries}
		}

		return &entitySeries{
			returns:   returns,
			wealth:    WealthCurve(returns),
			frequency: dataframe.InferFrequency(df.Dates),
			frame:     returnFrame(entity.Label(), df.Dates, returns),
		}, nil
	}

	rec := entity.Record
	constituents := make([]*dataframe.DataFrame, 0, len(rec.Assets))
	for _, ticker := range rec.Assets {
		df, _, err := e.market.GetHistory(ctx, ticker, set.Currency, set.Begin, set.End)
		if err != nil {
			return nil, &DataError{Entity: entity.Identifier(), Err: err}
		}
		constituents = append(constituents, df)
	}

	joined := dataframe.InnerJoin(constituents...)
	wealth := PortfolioWealth(joined, rec)
	returns := PeriodReturns(wealth)
	if len(returns) == 0 {
		return nil, &DataError{Entity: entity.Identifier(), Err: data.ErrEmptySeries}
	}

	return &entitySeries{
		returns:   returns,
		wealth:    wealth,
		frequency: dataframe.InferFrequency(joined.Dates),
		frame:     returnFrame(entity.Label(), joined.Dates, returns),
	}, nil
}

// dividendYield resolves the trailing yield cell. A portfolio's yield is the
// weight-weighted sum of its constituents; a constituent without a yield
// contributes 0 unless every constituent is missing, which nulls the cell.
func (e *Engine) dividendYield(ctx context.Context, entity *compare.Entity, row *Row) *float64 {
	if entity.Kind == compare.EntityAsset {
		yield, err := e.market.DividendYield(ctx, entity.Ticker)
		if err != nil {
			if !errors.Is(err, data.ErrNoDividend) {
				row.Warnings = append(row.Warnings, fmt.Sprintf("dividend yield unavailable for %s", entity.Ticker))
			}
			return nil
		}
		return finite(yield)
	}

	rec := entity.Record
	var (
		total   float64
		missing int
	)
	for idx, ticker := range rec.Assets {
		yield, err := e.market.DividendYield(ctx, ticker)
		if err != nil {
			missing++
			continue
		}
		total += rec.Weights[idx] * yield
	}
	if missing == len(rec.Assets) {
		return nil
	}

	return finite(total)
}

// returnFrame wraps a return series in a single-column dataframe keyed by
// the dates of the second observation of each pair
func returnFrame(label string, dates []time.Time, returns []float64) *dataframe.DataFrame {
	df := dataframe.New(dates[1:])
	df.Insert(label, returns)
	return df
}

// horizonYears maps the comparison window onto the rate-series horizon;
// an open window defaults to the long horizon
func horizonYears(begin, end time.Time) int {
	if begin.IsZero() || end.IsZero() {
		return 10
	}
	years := end.Sub(begin).Hours() / (24 * 365.25)
	return int(math.Round(years))
}
