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
	"time"
)

// InnerJoin merges the columns of the given dataframes over the dates that
// are present in every input frame. Column names must be unique across the
// inputs; a duplicated column name keeps only its first occurrence.
func InnerJoin(frames ...*DataFrame) *DataFrame {
	if len(frames) == 0 {
		return New([]time.Time{})
	}

	if len(frames) == 1 {
		return frames[0].Copy()
	}

	// count date occurrences; a date is shared when every frame has it
	counts := make(map[int64]int, frames[0].Len())
	for _, df := range frames {
		for _, dt := range df.Dates {
			counts[dt.Unix()]++
		}
	}

	shared := make([]time.Time, 0, frames[0].Len())
	for _, dt := range frames[0].Dates {
		if counts[dt.Unix()] == len(frames) {
			shared = append(shared, dt)
		}
	}

	joined := New(shared)
	seen := make(map[string]bool)

	for _, df := range frames {
		rowIdx := make(map[int64]int, df.Len())
		for idx, dt := range df.Dates {
			rowIdx[dt.Unix()] = idx
		}

		for colIdx, colName := range df.ColNames {
			if seen[colName] {
				continue
			}
			seen[colName] = true

			col := make([]float64, len(shared))
			for ii, dt := range shared {
				col[ii] = df.Vals[colIdx][rowIdx[dt.Unix()]]
			}
			joined.Insert(colName, col)
		}
	}

	return joined
}
