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
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quantpanel/qp-api/data"
	"github.com/quantpanel/qp-api/portfolio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// MarketData is the slice of the data manager the builder needs
type MarketData interface {
	LookupISIN(ctx context.Context, isin string) (string, error)
	HistoryRange(ctx context.Context, ticker string, currency string) (time.Time, time.Time, error)
}

// SupportedCurrencies is the fixed set of currencies a comparison may be
// expressed in
var SupportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"RUB": true,
	"JPY": true,
	"CHF": true,
}

// PeriodOverride restricts a comparison to the trailing number of years
type PeriodOverride struct {
	Years int
}

var periodPattern = regexp.MustCompile(`^(\d+)[Yy]$`)

// Result is an ordered comparison set with its resolved currency and date
// range. A zero Begin/End means no common range exists and each entity falls
// back to its own full history; Warnings explains why.
type Result struct {
	Entities []*Entity
	Currency string
	Begin    time.Time
	End      time.Time
	Warnings []string
}

// Builder resolves classified tokens into comparable entities
type Builder struct {
	market MarketData
}

func NewBuilder(market MarketData) *Builder {
	return &Builder{market: market}
}

// ExtractOverrides strips optional trailing currency and period tokens from
// a raw symbol list. Either may appear, in any order, at the end of the
// list. A malformed period like "0Y" is rejected; a three-letter token not
// in the currency enum stays a symbol.
func ExtractOverrides(tokens []string) ([]string, string, *PeriodOverride, error) {
	currency := ""
	var period *PeriodOverride

	for ii := 0; ii < 2 && len(tokens) > 0; ii++ {
		tail := strings.TrimSpace(tokens[len(tokens)-1])

		if m := periodPattern.FindStringSubmatch(tail); m != nil {
			if period != nil {
				break
			}
			years, err := strconv.Atoi(m[1])
			if err != nil || years < 1 {
				return nil, "", nil, &InputError{
					Kind:  InvalidPeriod,
					Token: tail,
					Msg:   "period must be a positive number of years, e.g. 5Y",
				}
			}
			period = &PeriodOverride{Years: years}
			tokens = tokens[:len(tokens)-1]
			continue
		}

		if upper := strings.ToUpper(tail); SupportedCurrencies[upper] {
			if currency != "" {
				break
			}
			currency = upper
			tokens = tokens[:len(tokens)-1]
			continue
		}

		break
	}

	return tokens, currency, period, nil
}

// Build turns classified tokens into an ordered comparison set. Requires at
// least two tokens. Display labels are composed here, once, and never parsed
// back into identifiers.
func (b *Builder) Build(ctx context.Context, tokens []ClassifiedToken, records map[string]*portfolio.Record, currencyOverride string, period *PeriodOverride) (*Result, error) {
	if len(tokens) < 2 {
		return nil, &InputError{
			Kind: TooFewSymbols,
			Msg:  fmt.Sprintf("need at least 2 symbols to compare, got %d", len(tokens)),
		}
	}

	if currencyOverride != "" && !SupportedCurrencies[currencyOverride] {
		return nil, &InputError{
			Kind:  UnsupportedCurrency,
			Token: currencyOverride,
			Msg:   "currency is not supported",
		}
	}

	entities := make([]*Entity, 0, len(tokens))
	for _, token := range tokens {
		switch token.Kind {
		case TokenPortfolioRef:
			rec, err := portfolio.Reconstruct(token.Value, records)
			if err != nil {
				return nil, err
			}
			entities = append(entities, newPortfolioEntity(rec))
		case TokenISIN:
			ticker, err := b.market.LookupISIN(ctx, token.Value)
			if err != nil {
				if errors.Is(err, data.ErrSymbolNotFound) {
					return nil, &InputError{
						Kind:  UnknownSymbol,
						Token: token.Raw,
						Msg:   "ISIN does not match any listed security",
					}
				}
				// a transient lookup failure is not the user's to fix
				return nil, fmt.Errorf("resolving ISIN %q: %w", token.Raw, err)
			}
			entities = append(entities, newAssetEntity(ticker, data.ListingCurrency(ticker)))
		default:
			entities = append(entities, newAssetEntity(token.Value, data.ListingCurrency(token.Value)))
		}
	}

	result := &Result{
		Entities: entities,
		Currency: resolveCurrency(currencyOverride, entities),
	}

	if period != nil {
		now := time.Now()
		result.Begin = now.AddDate(-period.Years, 0, 0)
		result.End = now
		return result, nil
	}

	b.resolveDateRange(ctx, result)
	return result, nil
}

// resolveCurrency applies the resolution order: explicit override, currency
// of the first resolved entity, configured default
func resolveCurrency(override string, entities []*Entity) string {
	if override != "" {
		return override
	}

	if len(entities) > 0 {
		first := entities[0]
		if first.Kind == EntityPortfolio {
			if first.Record.Currency != "" {
				return first.Record.Currency
			}
		} else if first.Currency != "" {
			return first.Currency
		}
	}

	if def := viper.GetString("compare.default_currency"); def != "" {
		return def
	}
	return "USD"
}

// resolveDateRange computes the maximal range for which every entity has
// data. When the intersection is empty the range is left zero and each
// entity falls back to its own history, flagged by a warning.
func (b *Builder) resolveDateRange(ctx context.Context, result *Result) {
	var (
		begin   time.Time
		end     time.Time
		covered int
	)

	for _, entity := range result.Entities {
		first, last, err := b.entityRange(ctx, entity, result.Currency)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no history coverage information for %s", entity.Identifier()))
			continue
		}

		if covered == 0 {
			begin, end = first, last
		} else {
			if first.After(begin) {
				begin = first
			}
			if last.Before(end) {
				end = last
			}
		}
		covered++
	}

	if covered == 0 || begin.After(end) {
		log.Warn().Msg("comparison entities share no common date range; falling back to per-entity history")
		result.Warnings = append(result.Warnings,
			"entities share no common date range; metrics are computed over each entity's own history")
		return
	}

	result.Begin = begin
	result.End = end
}

// entityRange returns the available range for an entity; a portfolio's
// range is the intersection of its constituents
func (b *Builder) entityRange(ctx context.Context, entity *Entity, currency string) (time.Time, time.Time, error) {
	if entity.Kind == EntityAsset {
		return b.market.HistoryRange(ctx, entity.Ticker, currency)
	}

	var (
		begin time.Time
		end   time.Time
	)

	for idx, ticker := range entity.Record.Assets {
		first, last, err := b.market.HistoryRange(ctx, ticker, currency)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if idx == 0 {
			begin, end = first, last
			continue
		}
		if first.After(begin) {
			begin = first
		}
		if last.Before(end) {
			end = last
		}
	}

	if begin.IsZero() {
		return time.Time{}, time.Time{}, data.ErrEmptySeries
	}

	return begin, end, nil
}
