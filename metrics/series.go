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
	"time"

	"github.com/quantpanel/qp-api/dataframe"
	"github.com/quantpanel/qp-api/portfolio"
)

// PeriodReturns computes simple returns between consecutive observations
func PeriodReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}

	rets := make([]float64, 0, len(prices)-1)
	for ii := 1; ii < len(prices); ii++ {
		if prices[ii-1] == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, prices[ii]/prices[ii-1]-1)
	}
	return rets
}

// WealthCurve builds a unit-initial wealth curve from period returns
func WealthCurve(returns []float64) []float64 {
	wealth := make([]float64, len(returns)+1)
	wealth[0] = 1
	for ii, ret := range returns {
		wealth[ii+1] = wealth[ii] * (1 + ret)
	}
	return wealth
}

// PortfolioWealth combines aligned constituent prices into a single wealth
// curve starting at 1. Holdings are set from the record's weights on the
// first date and reset at month or year boundaries per the rebalance policy;
// with no policy the initial allocation is held throughout.
func PortfolioWealth(df *dataframe.DataFrame, rec *portfolio.Record) []float64 {
	n := df.Len()
	if n == 0 {
		return nil
	}

	cols := make([][]float64, len(rec.Assets))
	for idx, ticker := range rec.Assets {
		cols[idx] = df.Col(ticker)
		if cols[idx] == nil {
			return nil
		}
	}

	wealth := make([]float64, n)
	wealth[0] = 1
	shares := allocate(cols, rec.Weights, 0, 1)

	for t := 1; t < n; t++ {
		value := 0.0
		for idx := range shares {
			value += shares[idx] * cols[idx][t]
		}
		wealth[t] = value

		if rebalanceDue(rec.RebalancePolicy, df.Dates[t-1], df.Dates[t]) {
			shares = allocate(cols, rec.Weights, t, value)
		}
	}

	return wealth
}

func allocate(cols [][]float64, weights []float64, idx int, value float64) []float64 {
	shares := make([]float64, len(cols))
	for ii := range cols {
		price := cols[ii][idx]
		if price == 0 {
			continue
		}
		shares[ii] = value * weights[ii] / price
	}
	return shares
}

func rebalanceDue(policy portfolio.RebalancePolicy, prev, cur time.Time) bool {
	switch policy {
	case portfolio.RebalanceMonthly:
		return prev.Month() != cur.Month() || prev.Year() != cur.Year()
	case portfolio.RebalanceAnnual:
		return prev.Year() != cur.Year()
	default:
		return false
	}
}
