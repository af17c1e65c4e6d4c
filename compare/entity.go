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

package compare

import (
	"fmt"
	"strings"

	"github.com/quantpanel/qp-api/portfolio"
)

type EntityKind string

const (
	EntityAsset     EntityKind = "asset"
	EntityPortfolio EntityKind = "portfolio"
)

// Entity is a resolved member of a comparison set: either a single asset or
// a reconstructed portfolio. The kind is fixed at resolution time; nothing
// downstream re-inspects raw tokens.
//
// Identifier is used for all lookups and validation. Label is a
// human-readable display string composed once by the builder; it is never
// parsed back into an identifier.
type Entity struct {
	Kind     EntityKind         `json:"kind"`
	Ticker   string             `json:"ticker,omitempty"`
	Currency string             `json:"currency,omitempty"`
	Record   *portfolio.Record  `json:"record,omitempty"`
	label    string
}

// Identifier returns the stable lookup key for the entity
func (e *Entity) Identifier() string {
	if e.Kind == EntityPortfolio {
		return e.Record.ID
	}
	return e.Ticker
}

// Label returns the display label composed at build time
func (e *Entity) Label() string {
	return e.label
}

func newAssetEntity(ticker, currency string) *Entity {
	return &Entity{
		Kind:     EntityAsset,
		Ticker:   ticker,
		Currency: currency,
		label:    ticker,
	}
}

func newPortfolioEntity(rec *portfolio.Record) *Entity {
	return &Entity{
		Kind:   EntityPortfolio,
		Record: rec,
		label:  fmt.Sprintf("%s (%s)", rec.ID, strings.Join(rec.Assets, ", ")),
	}
}
