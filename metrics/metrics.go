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
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// All metric functions return a pointer so a cell that cannot be computed is
// null rather than a misleading zero.

func ptr(v float64) *float64 {
	return &v
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return ptr(v)
}

// CAGR is the compound annual growth rate of the wealth curve. Years are
// derived from the observation count and the series cadence, not from
// calendar dates, so sparse series do not overstate growth.
func CAGR(wealth []float64, periodsPerYear float64) *float64 {
	if len(wealth) < 2 || wealth[0] <= 0 || periodsPerYear <= 0 {
		return nil
	}

	years := float64(len(wealth)-1) / periodsPerYear
	if years <= 0 {
		return nil
	}

	return finite(math.Pow(wealth[len(wealth)-1]/wealth[0], 1/years) - 1)
}

// Volatility is the annualized standard deviation of period returns
func Volatility(returns []float64, periodsPerYear float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	return finite(stat.StdDev(returns, nil) * math.Sqrt(periodsPerYear))
}

// Sharpe is the excess CAGR per unit of total volatility; null when
// volatility is zero or either input is null
func Sharpe(cagr, vol *float64, riskFree float64) *float64 {
	if cagr == nil || vol == nil || *vol == 0 {
		return nil
	}
	return finite((*cagr - riskFree) / *vol)
}

// Sortino is the excess CAGR per unit of downside volatility, measured over
// negative returns only; null when the series never lost money
func Sortino(cagr *float64, returns []float64, periodsPerYear float64, riskFree float64) *float64 {
	if cagr == nil {
		return nil
	}

	negatives := make([]float64, 0, len(returns))
	for _, ret := range returns {
		if ret < 0 {
			negatives = append(negatives, ret)
		}
	}
	if len(negatives) < 2 {
		return nil
	}

	downside := stat.StdDev(negatives, nil) * math.Sqrt(periodsPerYear)
	if downside == 0 {
		return nil
	}

	return finite((*cagr - riskFree) / downside)
}

// MaxDrawdown is the largest peak-to-trough loss of the wealth curve,
// expressed as a non-positive fraction
func MaxDrawdown(wealth []float64) *float64 {
	if len(wealth) == 0 {
		return nil
	}

	peak := wealth[0]
	maxDD := 0.0
	for _, v := range wealth {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := v/peak - 1; dd < maxDD {
				maxDD = dd
			}
		}
	}

	return finite(maxDD)
}

// Calmar is CAGR over the magnitude of max drawdown; null when the curve
// never drew down
func Calmar(cagr, maxDrawdown *float64) *float64 {
	if cagr == nil || maxDrawdown == nil || *maxDrawdown == 0 {
		return nil
	}
	return finite(*cagr / math.Abs(*maxDrawdown))
}

// VaR95 is the 5th percentile of the period return distribution
func VaR95(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return finite(stat.Quantile(0.05, stat.Empirical, sorted, nil))
}

// CVaR95 is the mean of the returns at or below the 5th percentile
func CVaR95(returns []float64) *float64 {
	threshold := VaR95(returns)
	if threshold == nil {
		return nil
	}

	var (
		sum   float64
		count int
	)
	for _, ret := range returns {
		if ret <= *threshold {
			sum += ret
			count++
		}
	}
	if count == 0 {
		return nil
	}

	return finite(sum / float64(count))
}
