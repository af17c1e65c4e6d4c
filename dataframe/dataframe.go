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
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// DataFrame is a date-indexed table of float64 columns. Dates are strictly
// increasing; every column has exactly len(Dates) values.
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

// New creates a DataFrame with the given date index and no columns
func New(dates []time.Time) *DataFrame {
	return &DataFrame{
		Dates:    dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the named column; -1 if it doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}
	return -1
}

// Col returns the values of the named column; nil if it doesn't exist
func (df *DataFrame) Col(colName string) []float64 {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil
	}
	return df.Vals[idx]
}

// Insert adds a new column to the end of the dataframe
func (df *DataFrame) Insert(name string, col []float64) *DataFrame {
	if len(col) != len(df.Dates) {
		log.Panic().Int("NumVals", len(col)).Int("NumRows", len(df.Dates)).Str("ColName", name).Msg("column length must equal number of rows")
	}
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		Dates:    make([]time.Time, len(df.Dates)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.Dates, df.Dates)
	copy(df2.ColNames, df.ColNames)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// End returns the last date of the dataframe
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// DropNA removes rows where any column is NaN
func (df *DataFrame) DropNA() *DataFrame {
	newDates := make([]time.Time, 0, len(df.Dates))
	newVals := make([][]float64, len(df.Vals))

	for idx, dt := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			if math.IsNaN(col[idx]) {
				keep = false
				break
			}
		}

		if keep {
			newDates = append(newDates, dt)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[idx])
			}
		}
	}

	df.Dates = newDates
	df.Vals = newVals
	return df
}

// Trim the dataframe to the specified date range (inclusive)
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates,
		Vals:     make([][]float64, len(df.Vals)),
	}

	// special case 0: requested range is invalid
	if end.Before(begin) {
		df2.Dates = []time.Time{}
		for colIdx := range df2.Vals {
			df2.Vals[colIdx] = []float64{}
		}
		return df2
	}

	// special case 1: data frame is empty
	if df.Len() == 0 {
		copy(df2.Vals, df.Vals)
		return df2
	}

	// special case 2: requested range is entirely outside the data
	if end.Before(df.Dates[0]) || begin.After(df.Dates[len(df.Dates)-1]) {
		df2.Dates = []time.Time{}
		for colIdx := range df2.Vals {
			df2.Vals[colIdx] = []float64{}
		}
		return df2
	}

	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(begin) || df.Dates[i].Equal(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	df2.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}
