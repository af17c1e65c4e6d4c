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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/dataframe"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("DataFrame", func() {
	var df *dataframe.DataFrame

	BeforeEach(func() {
		df = dataframe.New([]time.Time{day(1), day(2), day(3), day(4), day(5)})
		df.Insert("A", []float64{1, 2, 3, 4, 5})
	})

	Context("with no values", func() {
		It("has zero length", func() {
			empty := dataframe.New(nil)
			Expect(empty.Len()).To(Equal(0))
			Expect(empty.ColCount()).To(Equal(0))
		})
	})

	Describe("column access", func() {
		It("returns the column values", func() {
			Expect(df.Col("A")).To(Equal([]float64{1, 2, 3, 4, 5}))
		})

		It("returns nil for an unknown column", func() {
			Expect(df.Col("Z")).To(BeNil())
		})
	})

	Describe("copy", func() {
		It("does not share storage with the original", func() {
			df2 := df.Copy()
			df2.Vals[0][0] = 99
			Expect(df.Vals[0][0]).To(Equal(1.0))
		})
	})

	Describe("trim", func() {
		It("keeps the inclusive date range", func() {
			df2 := df.Trim(day(2), day(4))
			Expect(df2.Len()).To(Equal(3))
			Expect(df2.Col("A")).To(Equal([]float64{2, 3, 4}))
		})

		It("returns an empty frame for an inverted range", func() {
			df2 := df.Trim(day(4), day(2))
			Expect(df2.Len()).To(Equal(0))
		})

		It("returns an empty frame for a disjoint range", func() {
			df2 := df.Trim(day(20), day(25))
			Expect(df2.Len()).To(Equal(0))
		})

		It("does not modify the original", func() {
			_ = df.Trim(day(2), day(3))
			Expect(df.Len()).To(Equal(5))
		})
	})

	Describe("dropna", func() {
		It("removes rows containing NaN", func() {
			df.Insert("B", []float64{1, math.NaN(), 3, 4, math.NaN()})
			df.DropNA()
			Expect(df.Len()).To(Equal(3))
			Expect(df.Col("A")).To(Equal([]float64{1, 3, 4}))
		})
	})
})

var _ = Describe("InnerJoin", func() {
	It("keeps only dates present in every frame", func() {
		a := dataframe.New([]time.Time{day(1), day(2), day(3)})
		a.Insert("A", []float64{1, 2, 3})

		b := dataframe.New([]time.Time{day(2), day(3), day(4)})
		b.Insert("B", []float64{20, 30, 40})

		joined := dataframe.InnerJoin(a, b)
		Expect(joined.Len()).To(Equal(2))
		Expect(joined.Col("A")).To(Equal([]float64{2, 3}))
		Expect(joined.Col("B")).To(Equal([]float64{20, 30}))
	})

	It("returns an empty frame when nothing overlaps", func() {
		a := dataframe.New([]time.Time{day(1)})
		a.Insert("A", []float64{1})

		b := dataframe.New([]time.Time{day(9)})
		b.Insert("B", []float64{9})

		joined := dataframe.InnerJoin(a, b)
		Expect(joined.Len()).To(Equal(0))
	})
})

var _ = Describe("InferFrequency", func() {
	It("detects a daily cadence with weekend gaps", func() {
		dates := []time.Time{}
		cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for len(dates) < 30 {
			if wd := cur.Weekday(); wd != time.Saturday && wd != time.Sunday {
				dates = append(dates, cur)
			}
			cur = cur.AddDate(0, 0, 1)
		}
		Expect(dataframe.InferFrequency(dates)).To(Equal(dataframe.Daily))
	})

	It("detects a monthly cadence", func() {
		dates := make([]time.Time, 24)
		for ii := range dates {
			dates[ii] = time.Date(2022, time.Month(ii+1), 1, 0, 0, 0, 0, time.UTC)
		}
		Expect(dataframe.InferFrequency(dates)).To(Equal(dataframe.Monthly))
	})

	It("treats a short series as daily", func() {
		Expect(dataframe.InferFrequency([]time.Time{day(1)})).To(Equal(dataframe.Daily))
	})
})
