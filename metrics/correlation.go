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
	"fmt"

	"github.com/quantpanel/qp-api/dataframe"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds return correlations over the common date index of
// the included entities. The diagonal is always 1; off-diagonal cells are
// null only when a correlation is undefined, e.g. for a constant series.
type CorrelationMatrix struct {
	Labels   []string     `json:"labels"`
	Cells    [][]*float64 `json:"cells"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Correlate computes the correlation matrix of the return series. Each frame
// must be a single-column dataframe whose column name matches the label at
// the same index. All series are inner-joined once so every pair is measured
// over the same dates. Entities without a return series, or whose inclusion
// would leave fewer than two shared observations, are excluded from the
// matrix with a warning.
func Correlate(labels []string, frames []*dataframe.DataFrame) *CorrelationMatrix {
	matrix := &CorrelationMatrix{}

	var joined *dataframe.DataFrame
	kept := make([]string, 0, len(labels))
	for idx, frame := range frames {
		if frame == nil {
			matrix.Warnings = append(matrix.Warnings,
				fmt.Sprintf("%s has no return series; excluded from correlations", labels[idx]))
			continue
		}

		candidate := frame
		if joined != nil {
			candidate = dataframe.InnerJoin(joined, frame)
		}
		if candidate.Len() < 2 {
			matrix.Warnings = append(matrix.Warnings,
				fmt.Sprintf("%s shares fewer than 2 observations with the set; excluded from correlations", labels[idx]))
			continue
		}

		joined = candidate
		kept = append(kept, labels[idx])
	}

	n := len(kept)
	matrix.Labels = kept
	matrix.Cells = make([][]*float64, n)
	for ii := range matrix.Cells {
		matrix.Cells[ii] = make([]*float64, n)
	}

	for ii := 0; ii < n; ii++ {
		matrix.Cells[ii][ii] = ptr(1.0)

		for jj := ii + 1; jj < n; jj++ {
			corr := finite(stat.Correlation(joined.Col(kept[ii]), joined.Col(kept[jj]), nil))
			matrix.Cells[ii][jj] = corr
			matrix.Cells[jj][ii] = corr
		}
	}

	return matrix
}
