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

package dataframe

import (
	"sort"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "Daily"
	Monthly Frequency = "Monthly"
)

// PeriodsPerYear returns the annualization factor for the frequency
func (f Frequency) PeriodsPerYear() float64 {
	if f == Monthly {
		return 12
	}
	return 252
}

// maximum median gap, in calendar days, still considered a daily cadence;
// daily series have weekend and holiday gaps of up to 4 days
const maxDailyGap = 4 * 24 * time.Hour

// InferFrequency detects a daily vs monthly cadence from the median gap
// between consecutive dates. A series with fewer than two dates is daily.
func InferFrequency(dates []time.Time) Frequency {
	if len(dates) < 2 {
		return Daily
	}

	gaps := make([]time.Duration, 0, len(dates)-1)
	for ii := 1; ii < len(dates); ii++ {
		gaps = append(gaps, dates[ii].Sub(dates[ii-1]))
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	median := gaps[len(gaps)/2]

	if median > maxDailyGap {
		return Monthly
	}
	return Daily
}
