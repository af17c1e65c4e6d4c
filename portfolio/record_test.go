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

package portfolio_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/portfolio"
)

var _ = Describe("Record", func() {
	var rec *portfolio.Record

	BeforeEach(func() {
		rec = &portfolio.Record{
			ID:       "PF_7",
			Name:     "Balanced",
			Assets:   []string{"SPY.US", "QQQ.US"},
			Weights:  []float64{0.6, 0.4},
			Currency: "USD",
		}
	})

	Describe("validation", func() {
		It("accepts weights that sum to 1", func() {
			Expect(rec.Validate()).To(Succeed())
		})

		It("tolerates rounding error in the weight sum", func() {
			rec.Weights = []float64{0.6, 0.4 - 1e-7}
			Expect(rec.Validate()).To(Succeed())
		})

		It("rejects weights that do not sum to 1", func() {
			rec.Weights = []float64{0.6, 0.6}
			err := rec.Validate()
			Expect(err).To(HaveOccurred())

			re, ok := err.(*portfolio.ResolutionError)
			Expect(ok).To(BeTrue())
			Expect(re.Kind).To(Equal(portfolio.KindInvalidState))
		})

		It("rejects mismatched assets and weights", func() {
			rec.Weights = []float64{1.0}
			err := rec.Validate()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("clone", func() {
		It("does not share slices with the original", func() {
			clone := rec.Clone()
			clone.Weights[0] = 0.99
			Expect(rec.Weights[0]).To(Equal(0.6))
		})
	})
})

var _ = Describe("CanonicalID", func() {
	It("translates legacy references", func() {
		Expect(portfolio.CanonicalID("portfolio_7.PF")).To(Equal("PF_7"))
	})

	It("passes current references through", func() {
		Expect(portfolio.CanonicalID("PF_7")).To(Equal("PF_7"))
	})

	It("leaves non-portfolio tokens alone", func() {
		Expect(portfolio.CanonicalID("AAPL.US")).To(Equal("AAPL.US"))
	})
})

var _ = Describe("KnownIDs", func() {
	It("includes legacy aliases for current ids", func() {
		records := map[string]*portfolio.Record{
			"PF_7": {ID: "PF_7"},
		}
		ids := portfolio.KnownIDs(records)
		Expect(ids).To(HaveKey("PF_7"))
		Expect(ids).To(HaveKey("portfolio_7.PF"))
	})
})

var _ = Describe("Reconstruct", func() {
	var records map[string]*portfolio.Record

	BeforeEach(func() {
		records = map[string]*portfolio.Record{
			"PF_7": {
				ID:       "PF_7",
				Assets:   []string{"SPY.US", "QQQ.US"},
				Weights:  []float64{0.6, 0.4},
				Currency: "USD",
			},
			"PF_9": {
				ID:      "PF_9",
				Assets:  []string{"SPY.US"},
				Weights: []float64{0.5},
			},
		}
	})

	It("resolves a legacy reference to the stored record", func() {
		rec, err := portfolio.Reconstruct("portfolio_7.PF", records)
		Expect(err).To(BeNil())
		Expect(rec.ID).To(Equal("PF_7"))
		Expect(rec.Weights).To(Equal([]float64{0.6, 0.4}))
	})

	It("is idempotent", func() {
		first, err := portfolio.Reconstruct("PF_7", records)
		Expect(err).To(BeNil())
		second, err := portfolio.Reconstruct("PF_7", records)
		Expect(err).To(BeNil())

		Expect(second.Assets).To(Equal(first.Assets))
		Expect(second.Weights).To(Equal(first.Weights))
		Expect(second.Currency).To(Equal(first.Currency))
	})

	It("returns NOT_FOUND for an unknown reference", func() {
		_, err := portfolio.Reconstruct("PF_404", records)
		Expect(portfolio.IsNotFound(err)).To(BeTrue())
	})

	It("returns INVALID_STATE for a corrupt record", func() {
		_, err := portfolio.Reconstruct("PF_9", records)
		Expect(err).To(HaveOccurred())
		Expect(portfolio.IsNotFound(err)).To(BeFalse())
	})
})
