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
	_ "embed"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// shortHorizonYears is the boundary between the short and long rate proxy.
// USD and EUR have structurally different short vs long curves, so each
// horizon bucket maps to its own series.
const shortHorizonYears = 5

// proxy rate series per currency; [0] short horizon, [1] long horizon
var rateSeries = map[string][2]string{
	"USD": {"DTB3", "DGS10"},
	"EUR": {"IR3TIB01EZM156N", "IRLTLT01EZM156N"},
}

//go:embed riskfree_fallback.toml
var fallbackToml []byte

type fallbackTable struct {
	Rates map[string]float64 `toml:"rates"`
}

var (
	fallbackOnce  sync.Once
	fallbackRates map[string]float64
)

// RateSeriesFor selects the live proxy series for the currency and horizon.
// Returns ok=false when the currency has no live proxy and the static
// fallback table must be used directly.
func RateSeriesFor(currency string, horizonYears int) (string, bool) {
	series, ok := rateSeries[currency]
	if !ok {
		return "", false
	}

	if horizonYears > 0 && horizonYears >= shortHorizonYears {
		return series[1], true
	}
	return series[0], true
}

// FallbackRate returns the static risk free rate for the currency
func FallbackRate(currency string) (float64, error) {
	fallbackOnce.Do(func() {
		var table fallbackTable
		if err := toml.Unmarshal(fallbackToml, &table); err != nil {
			log.Panic().Err(err).Msg("could not parse embedded risk free fallback table")
		}
		fallbackRates = table.Rates
	})

	rate, ok := fallbackRates[currency]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	return rate, nil
}
