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

package metrics_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/dataframe"
	"github.com/quantpanel/qp-api/metrics"
	"github.com/quantpanel/qp-api/portfolio"
)

var _ = Describe("PeriodReturns", func() {
	It("computes simple returns between observations", func() {
		rets := metrics.PeriodReturns([]float64{100, 110, 99})
		Expect(rets).To(HaveLen(2))
		Expect(rets[0]).To(BeNumerically("~", 0.10, 1e-9))
		Expect(rets[1]).To(BeNumerically("~", -0.10, 1e-9))
	})

	It("returns nil for fewer than two observations", func() {
		Expect(metrics.PeriodReturns([]float64{100})).To(BeNil())
	})
})

var _ = Describe("WealthCurve", func() {
	It("compounds returns from unit wealth", func() {
		wealth := metrics.WealthCurve([]float64{0.10, -0.10})
		Expect(wealth[0]).To(Equal(1.0))
		Expect(wealth[1]).To(BeNumerically("~", 1.10, 1e-9))
		Expect(wealth[2]).To(BeNumerically("~", 0.99, 1e-9))
	})
})

var _ = Describe("CAGR", func() {
	It("is 100% for a series that doubles over one daily year", func() {
		wealth := make([]float64, 253)
		for ii := range wealth {
			wealth[ii] = math.Pow(2, float64(ii)/252)
		}
		cagr := metrics.CAGR(wealth, 252)
		Expect(cagr).NotTo(BeNil())
		Expect(*cagr).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("annualizes monthly series with 12 periods per year", func() {
		wealth := make([]float64, 25)
		for ii := range wealth {
			wealth[ii] = math.Pow(4, float64(ii)/24)
		}
		cagr := metrics.CAGR(wealth, 12)
		Expect(cagr).NotTo(BeNil())
		Expect(*cagr).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("is null for an empty curve", func() {
		Expect(metrics.CAGR(nil, 252)).To(BeNil())
	})
})

var _ = Describe("Volatility and ratios", func() {
	It("Sharpe is null when volatility is zero", func() {
		returns := []float64{0.01, 0.01, 0.01, 0.01}
		vol := metrics.Volatility(returns, 252)
		Expect(vol).NotTo(BeNil())
		Expect(*vol).To(Equal(0.0))

		cagr := metrics.CAGR(metrics.WealthCurve(returns), 252)
		Expect(metrics.Sharpe(cagr, vol, 0.03)).To(BeNil())
	})

	It("Sortino is null when there are no negative returns", func() {
		returns := []float64{0.01, 0.02, 0.0, 0.01}
		cagr := metrics.CAGR(metrics.WealthCurve(returns), 252)
		Expect(metrics.Sortino(cagr, returns, 252, 0.03)).To(BeNil())
	})

	It("Sortino uses only the negative returns", func() {
		returns := []float64{0.05, -0.02, 0.04, -0.03, 0.05, -0.01}
		cagr := metrics.CAGR(metrics.WealthCurve(returns), 252)
		sortino := metrics.Sortino(cagr, returns, 252, 0.0)
		Expect(sortino).NotTo(BeNil())
	})
})

var _ = Describe("MaxDrawdown", func() {
	It("measures the worst peak-to-trough loss", func() {
		dd := metrics.MaxDrawdown([]float64{1.0, 1.2, 0.9, 1.5})
		Expect(dd).NotTo(BeNil())
		Expect(*dd).To(BeNumerically("~", -0.25, 1e-9))
	})

	It("is zero for a monotone rising curve", func() {
		dd := metrics.MaxDrawdown([]float64{1.0, 1.1, 1.2})
		Expect(dd).NotTo(BeNil())
		Expect(*dd).To(Equal(0.0))
	})

	It("is never positive", func() {
		dd := metrics.MaxDrawdown([]float64{1.0, 0.5, 2.0, 1.0, 3.0})
		Expect(dd).NotTo(BeNil())
		Expect(*dd).To(BeNumerically("<=", 0.0))
	})
})

var _ = Describe("Calmar", func() {
	It("is null when there is no drawdown", func() {
		cagr := 0.10
		dd := 0.0
		Expect(metrics.Calmar(&cagr, &dd)).To(BeNil())
	})

	It("divides CAGR by the drawdown magnitude", func() {
		cagr := 0.10
		dd := -0.25
		calmar := metrics.Calmar(&cagr, &dd)
		Expect(calmar).NotTo(BeNil())
		Expect(*calmar).To(BeNumerically("~", 0.4, 1e-9))
	})
})

var _ = Describe("VaR95 and CVaR95", func() {
	It("finds the 5th percentile and its tail mean", func() {
		returns := make([]float64, 20)
		for ii := range returns {
			returns[ii] = 0.01
		}
		returns[0] = -0.10

		v := metrics.VaR95(returns)
		Expect(v).NotTo(BeNil())
		Expect(*v).To(BeNumerically("~", -0.10, 1e-9))

		cv := metrics.CVaR95(returns)
		Expect(cv).NotTo(BeNil())
		Expect(*cv).To(BeNumerically("~", -0.10, 1e-9))
	})

	It("CVaR is never above VaR", func() {
		returns := []float64{-0.08, -0.05, -0.02, 0.0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06,
			0.01, 0.02, -0.01, 0.0, 0.03, 0.02, 0.01, -0.04, 0.02, 0.05}
		v := metrics.VaR95(returns)
		cv := metrics.CVaR95(returns)
		Expect(v).NotTo(BeNil())
		Expect(cv).NotTo(BeNil())
		Expect(*cv).To(BeNumerically("<=", *v))
	})
})

var _ = Describe("PortfolioWealth", func() {
	var (
		rec   *portfolio.Record
		dates []time.Time
	)

	BeforeEach(func() {
		rec = &portfolio.Record{
			ID:      "PF_1",
			Assets:  []string{"A", "B"},
			Weights: []float64{0.5, 0.5},
		}
		dates = []time.Time{
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		}
	})

	It("holds the initial allocation without a rebalance policy", func() {
		df := dataframe.New(dates)
		df.Insert("A", []float64{1, 2, 4})
		df.Insert("B", []float64{1, 1, 1})

		wealth := metrics.PortfolioWealth(df, rec)
		Expect(wealth).To(HaveLen(3))
		Expect(wealth[0]).To(Equal(1.0))
		Expect(wealth[1]).To(BeNumerically("~", 1.5, 1e-9))
		Expect(wealth[2]).To(BeNumerically("~", 2.5, 1e-9))
	})

	It("resets the allocation at month boundaries with monthly rebalancing", func() {
		rec.RebalancePolicy = portfolio.RebalanceMonthly

		df := dataframe.New(dates)
		df.Insert("A", []float64{1, 2, 4})
		df.Insert("B", []float64{1, 1, 1})

		wealth := metrics.PortfolioWealth(df, rec)
		Expect(wealth[1]).To(BeNumerically("~", 1.5, 1e-9))
		// after rebalance half the 1.5 sits in each asset again
		Expect(wealth[2]).To(BeNumerically("~", 2.25, 1e-9))
	})
})

var _ = Describe("Correlate", func() {
	day := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	frame := func(label string, vals []float64) *dataframe.DataFrame {
		dates := make([]time.Time, len(vals))
		for ii := range vals {
			dates[ii] = day(ii + 1)
		}
		df := dataframe.New(dates)
		df.Insert(label, vals)
		return df
	}

	It("is symmetric with a unit diagonal", func() {
		a := frame("A", []float64{0.01, -0.02, 0.03, 0.01, -0.01})
		b := frame("B", []float64{0.02, -0.01, 0.02, 0.0, -0.02})

		matrix := metrics.Correlate([]string{"A", "B"}, []*dataframe.DataFrame{a, b})
		Expect(*matrix.Cells[0][0]).To(Equal(1.0))
		Expect(*matrix.Cells[1][1]).To(Equal(1.0))
		Expect(matrix.Cells[0][1]).NotTo(BeNil())
		Expect(*matrix.Cells[0][1]).To(Equal(*matrix.Cells[1][0]))
	})

	It("is exactly 1 for identical series", func() {
		a := frame("A", []float64{0.01, -0.02, 0.03, 0.01})
		b := frame("B", []float64{0.01, -0.02, 0.03, 0.01})

		matrix := metrics.Correlate([]string{"A", "B"}, []*dataframe.DataFrame{a, b})
		Expect(*matrix.Cells[0][1]).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("measures every pair over the common date index", func() {
		// A and B differ before day 4 but agree on days 4 through 6, the
		// only dates the late-starting C also covers
		a := frame("A", []float64{0.05, -0.03, 0.02, 0.01, 0.02, -0.01})
		b := frame("B", []float64{-0.04, 0.02, 0.01, 0.01, 0.02, -0.01})

		cDates := []time.Time{day(4), day(5), day(6)}
		c := dataframe.New(cDates)
		c.Insert("C", []float64{0.03, -0.02, 0.01})

		matrix := metrics.Correlate([]string{"A", "B", "C"}, []*dataframe.DataFrame{a, b, c})
		Expect(matrix.Labels).To(Equal([]string{"A", "B", "C"}))
		Expect(matrix.Cells[0][1]).NotTo(BeNil())
		Expect(*matrix.Cells[0][1]).To(BeNumerically("~", 1.0, 1e-9))
		Expect(matrix.Cells[0][2]).NotTo(BeNil())
	})

	It("excludes entities sharing fewer than two observations", func() {
		a := frame("A", []float64{0.01, -0.02, 0.03})
		b := frame("B", []float64{0.02, -0.01, 0.02})

		cDates := []time.Time{day(20)}
		c := dataframe.New(cDates)
		c.Insert("C", []float64{0.05})

		matrix := metrics.Correlate([]string{"A", "B", "C"}, []*dataframe.DataFrame{a, b, c})
		Expect(matrix.Labels).To(Equal([]string{"A", "B"}))
		Expect(matrix.Cells).To(HaveLen(2))
		Expect(matrix.Cells[0][1]).NotTo(BeNil())
		Expect(matrix.Warnings).NotTo(BeEmpty())
	})

	It("excludes entities without a return series", func() {
		a := frame("A", []float64{0.01, -0.02, 0.03})

		matrix := metrics.Correlate([]string{"A", "B"}, []*dataframe.DataFrame{a, nil})
		Expect(matrix.Labels).To(Equal([]string{"A"}))
		Expect(matrix.Cells).To(HaveLen(1))
		Expect(*matrix.Cells[0][0]).To(Equal(1.0))
		Expect(matrix.Warnings).NotTo(BeEmpty())
	})
})
