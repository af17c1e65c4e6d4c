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

package compare_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/compare"
	"github.com/quantpanel/qp-api/data"
	"github.com/quantpanel/qp-api/portfolio"
)

type fakeMarket struct {
	isins   map[string]string
	ranges  map[string][2]time.Time
	isinErr error
}

func (f *fakeMarket) LookupISIN(_ context.Context, isin string) (string, error) {
	if f.isinErr != nil {
		return "", f.isinErr
	}
	if ticker, ok := f.isins[isin]; ok {
		return ticker, nil
	}
	return "", data.ErrSymbolNotFound
}

func (f *fakeMarket) HistoryRange(_ context.Context, ticker string, _ string) (time.Time, time.Time, error) {
	if r, ok := f.ranges[ticker]; ok {
		return r[0], r[1], nil
	}
	return time.Time{}, time.Time{}, data.ErrSymbolNotFound
}

var _ = Describe("Builder", func() {
	var (
		market  *fakeMarket
		builder *compare.Builder
		records map[string]*portfolio.Record
		ctx     context.Context

		day = func(y int, m time.Month, d int) time.Time {
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	)

	BeforeEach(func() {
		ctx = context.Background()
		market = &fakeMarket{
			isins: map[string]string{
				"US0378331005": "AAPL.US",
			},
			ranges: map[string][2]time.Time{
				"AAPL.US": {day(2000, 1, 3), day(2025, 6, 30)},
				"MSFT.US": {day(2005, 1, 3), day(2025, 6, 30)},
				"SPY.US":  {day(1995, 1, 3), day(2025, 6, 30)},
				"QQQ.US":  {day(1999, 3, 10), day(2025, 6, 30)},
				"VOD.LSE": {day(2010, 1, 4), day(2020, 12, 31)},
			},
		}
		builder = compare.NewBuilder(market)
		records = map[string]*portfolio.Record{
			"PF_7": {
				ID:       "PF_7",
				Assets:   []string{"SPY.US", "QQQ.US"},
				Weights:  []float64{0.6, 0.4},
				Currency: "USD",
			},
		}
	})

	classify := func(symbols ...string) []compare.ClassifiedToken {
		tokens, err := compare.ClassifyAll(symbols, portfolio.KnownIDs(records))
		Expect(err).To(BeNil())
		return tokens
	}

	It("requires at least two symbols", func() {
		_, err := builder.Build(ctx, classify("AAPL.US"), records, "", nil)
		Expect(compare.IsInputError(err, compare.TooFewSymbols)).To(BeTrue())
	})

	It("resolves tickers, ISINs and portfolio references in input order", func() {
		result, err := builder.Build(ctx, classify("US0378331005", "MSFT.US", "PF_7"), records, "", nil)
		Expect(err).To(BeNil())
		Expect(result.Entities).To(HaveLen(3))
		Expect(result.Entities[0].Kind).To(Equal(compare.EntityAsset))
		Expect(result.Entities[0].Ticker).To(Equal("AAPL.US"))
		Expect(result.Entities[1].Ticker).To(Equal("MSFT.US"))
		Expect(result.Entities[2].Kind).To(Equal(compare.EntityPortfolio))
		Expect(result.Entities[2].Record.ID).To(Equal("PF_7"))
	})

	It("composes a display label without touching the identifier", func() {
		result, err := builder.Build(ctx, classify("PF_7", "MSFT.US"), records, "", nil)
		Expect(err).To(BeNil())
		Expect(result.Entities[0].Identifier()).To(Equal("PF_7"))
		Expect(result.Entities[0].Label()).To(Equal("PF_7 (SPY.US, QQQ.US)"))
	})

	It("reports a well-formed but unknown ISIN as an unknown symbol", func() {
		_, err := builder.Build(ctx, classify("XX0000000000", "MSFT.US"), records, "", nil)
		Expect(compare.IsInputError(err, compare.UnknownSymbol)).To(BeTrue())
		Expect(compare.IsInputError(err, compare.MalformedToken)).To(BeFalse())
	})

	It("passes a transient ISIN lookup failure through for retry", func() {
		market.isinErr = data.ErrDataUnavailable

		_, err := builder.Build(ctx, classify("US0378331005", "MSFT.US"), records, "", nil)
		Expect(errors.Is(err, data.ErrDataUnavailable)).To(BeTrue())

		var inputErr *compare.InputError
		Expect(errors.As(err, &inputErr)).To(BeFalse())
	})

	It("propagates an unknown portfolio reference", func() {
		tokens := classify("MSFT.US", "AAPL.US")
		tokens[0] = compare.ClassifiedToken{Raw: "PF_404", Kind: compare.TokenPortfolioRef, Value: "PF_404"}

		_, err := builder.Build(ctx, tokens, records, "", nil)
		Expect(portfolio.IsNotFound(err)).To(BeTrue())
	})

	Describe("currency resolution", func() {
		It("prefers the explicit override", func() {
			result, err := builder.Build(ctx, classify("AAPL.US", "MSFT.US"), records, "EUR", nil)
			Expect(err).To(BeNil())
			Expect(result.Currency).To(Equal("EUR"))
		})

		It("rejects an unsupported override", func() {
			_, err := builder.Build(ctx, classify("AAPL.US", "MSFT.US"), records, "XTS", nil)
			Expect(compare.IsInputError(err, compare.UnsupportedCurrency)).To(BeTrue())
		})

		It("falls back to the first entity's currency", func() {
			result, err := builder.Build(ctx, classify("VOD.LSE", "AAPL.US"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Currency).To(Equal("GBP"))
		})

		It("uses the portfolio record's currency when a portfolio is first", func() {
			result, err := builder.Build(ctx, classify("PF_7", "VOD.LSE"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Currency).To(Equal("USD"))
		})
	})

	Describe("date range resolution", func() {
		It("uses the trailing years from a period override", func() {
			result, err := builder.Build(ctx, classify("AAPL.US", "MSFT.US"), records, "", &compare.PeriodOverride{Years: 5})
			Expect(err).To(BeNil())
			Expect(result.End.Sub(result.Begin)).To(BeNumerically("~", 5*365*24*time.Hour, 3*24*time.Hour))
		})

		It("intersects entity ranges without an override", func() {
			result, err := builder.Build(ctx, classify("AAPL.US", "MSFT.US"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Begin).To(Equal(day(2005, 1, 3)))
			Expect(result.End).To(Equal(day(2025, 6, 30)))
			Expect(result.Warnings).To(BeEmpty())
		})

		It("a portfolio's range is the intersection of its constituents", func() {
			result, err := builder.Build(ctx, classify("PF_7", "AAPL.US"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Begin).To(Equal(day(2000, 1, 3)))
		})

		It("warns and falls back when no common range exists", func() {
			market.ranges["OLD.US"] = [2]time.Time{day(1980, 1, 2), day(1990, 1, 2)}
			market.ranges["NEW.US"] = [2]time.Time{day(2020, 1, 2), day(2025, 1, 2)}

			result, err := builder.Build(ctx, classify("OLD.US", "NEW.US"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Begin.IsZero()).To(BeTrue())
			Expect(result.End.IsZero()).To(BeTrue())
			Expect(result.Warnings).NotTo(BeEmpty())
		})

		It("warns but keeps an entity whose coverage is unknown", func() {
			result, err := builder.Build(ctx, classify("AAPL.US", "MISSING.US"), records, "", nil)
			Expect(err).To(BeNil())
			Expect(result.Entities).To(HaveLen(2))
			Expect(result.Warnings).NotTo(BeEmpty())
			Expect(result.Begin).To(Equal(day(2000, 1, 3)))
		})
	})
})
