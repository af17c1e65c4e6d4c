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

package data

import (
	"context"
	"time"

	"github.com/quantpanel/qp-api/dataframe"
)

// HistoryMeta describes the coverage of a price series as reported by the
// provider, independent of the requested date range
type HistoryMeta struct {
	FirstAvailable time.Time `json:"firstAvailable"`
	LastAvailable  time.Time `json:"lastAvailable"`
}

// Provider is the interface quote providers must implement. Price histories
// come back as a single-column dataframe named after the ticker, expressed
// in the requested currency.
type Provider interface {
	GetHistory(ctx context.Context, ticker string, currency string, begin time.Time, end time.Time) (*dataframe.DataFrame, *HistoryMeta, error)
	LookupISIN(ctx context.Context, isin string) (string, error)
	DividendYield(ctx context.Context, ticker string) (float64, error)
}

// RateProvider retrieves a reference rate series observation
type RateProvider interface {
	Rate(ctx context.Context, series string, asOf time.Time) (float64, error)
}
