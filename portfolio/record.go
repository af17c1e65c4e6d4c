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

package portfolio

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0
const WeightTolerance = 1e-6

type RebalancePolicy string

const (
	RebalanceNone    RebalancePolicy = "none"
	RebalanceMonthly RebalancePolicy = "monthly"
	RebalanceAnnual  RebalancePolicy = "annual"
)

// Record is a stored portfolio composition. Records are created elsewhere in
// the system and are read-only here; assets and weights are parallel,
// order-preserving lists.
type Record struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Assets          []string        `json:"assets"`
	Weights         []float64       `json:"weights"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"createdAt"`
	RebalancePolicy RebalancePolicy `json:"rebalancePolicy"`
}

// Validate checks the structural invariants of a stored record
func (r *Record) Validate() error {
	if len(r.Assets) != len(r.Weights) {
		return &ResolutionError{
			Kind: KindInvalidState,
			Ref:  r.ID,
			Msg:  fmt.Sprintf("record has %d assets but %d weights", len(r.Assets), len(r.Weights)),
		}
	}

	var sum float64
	for _, w := range r.Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return &ResolutionError{
			Kind: KindInvalidState,
			Ref:  r.ID,
			Msg:  fmt.Sprintf("weights sum to %f, expected 1.0", sum),
		}
	}

	return nil
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	r2 := &Record{
		ID:              r.ID,
		Name:            r.Name,
		Assets:          make([]string, len(r.Assets)),
		Weights:         make([]float64, len(r.Weights)),
		Currency:        r.Currency,
		CreatedAt:       r.CreatedAt,
		RebalancePolicy: r.RebalancePolicy,
	}
	copy(r2.Assets, r.Assets)
	copy(r2.Weights, r.Weights)
	return r2
}

// legacy portfolio names look like "portfolio_7.PF"; the current convention
// is "PF_7"
var (
	legacyRefPattern  = regexp.MustCompile(`^portfolio_(\d+)\.PF$`)
	currentRefPattern = regexp.MustCompile(`^PF_(\d+)$`)
)

// CanonicalID translates a legacy portfolio reference into the current
// naming convention; references already in the current form pass through
func CanonicalID(ref string) string {
	if m := legacyRefPattern.FindStringSubmatch(ref); m != nil {
		return "PF_" + m[1]
	}
	return ref
}

// KnownIDs returns the set of tokens that resolve to one of the given
// records, including legacy aliases
func KnownIDs(records map[string]*Record) map[string]bool {
	ids := make(map[string]bool, len(records)*2)
	for id := range records {
		ids[id] = true
		if m := currentRefPattern.FindStringSubmatch(id); m != nil {
			ids["portfolio_"+m[1]+".PF"] = true
		}
	}
	return ids
}
