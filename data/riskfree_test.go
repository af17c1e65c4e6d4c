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

package data_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/data"
)

var _ = Describe("RateSeriesFor", func() {
	It("selects the short horizon series under five years", func() {
		series, ok := data.RateSeriesFor("USD", 1)
		Expect(ok).To(BeTrue())
		Expect(series).To(Equal("DTB3"))

		series, ok = data.RateSeriesFor("EUR", 3)
		Expect(ok).To(BeTrue())
		Expect(series).To(Equal("IR3TIB01EZM156N"))
	})

	It("selects the long horizon series at five years or more", func() {
		series, ok := data.RateSeriesFor("USD", 5)
		Expect(ok).To(BeTrue())
		Expect(series).To(Equal("DGS10"))

		series, ok = data.RateSeriesFor("EUR", 10)
		Expect(ok).To(BeTrue())
		Expect(series).To(Equal("IRLTLT01EZM156N"))
	})

	It("reports currencies without a live proxy", func() {
		_, ok := data.RateSeriesFor("GBP", 5)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("FallbackRate", func() {
	It("serves a static rate per currency", func() {
		rate, err := data.FallbackRate("USD")
		Expect(err).To(BeNil())
		Expect(rate).To(BeNumerically(">", 0))

		rate, err = data.FallbackRate("GBP")
		Expect(err).To(BeNil())
		Expect(rate).To(BeNumerically(">", 0))
	})

	It("rejects an unsupported currency", func() {
		_, err := data.FallbackRate("XTS")
		Expect(errors.Is(err, data.ErrUnsupportedCurrency)).To(BeTrue())
	})
})
