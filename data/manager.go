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
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/quantpanel/qp-api/common"
	"github.com/quantpanel/qp-api/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Manager is the caching facade over the quote and rate providers. All data
// access from the comparison engine goes through the manager.
type Manager struct {
	provider  Provider
	rates     RateProvider
	locker    sync.RWMutex
	isinCache map[string]string
}

var (
	managerOnce     sync.Once
	managerInstance *Manager
)

// cachedHistory is the serialized form of a full price series
type cachedHistory struct {
	Dates  []time.Time `json:"dates"`
	Prices []float64   `json:"prices"`
	Meta   HistoryMeta `json:"meta"`
}

// GetManagerInstance returns the process-wide data manager
func GetManagerInstance() *Manager {
	managerOnce.Do(func() {
		managerInstance = &Manager{
			provider:  NewEODHD(viper.GetString("eodhd.api_key")),
			rates:     NewFred(),
			isinCache: make(map[string]string),
		}
	})
	return managerInstance
}

// Reset clears manager state; used by tests to swap providers
func (m *Manager) Reset() {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.isinCache = make(map[string]string)
}

// SetProvider replaces the quote provider
func (m *Manager) SetProvider(p Provider) {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.provider = p
}

// SetRateProvider replaces the reference rate provider
func (m *Manager) SetRateProvider(p RateProvider) {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.rates = p
}

// GetHistory returns the price series for ticker in the given currency over
// [begin, end]. The full series is cached; a transient provider failure is
// retried once before the series is reported unavailable.
func (m *Manager) GetHistory(ctx context.Context, ticker string, currency string, begin time.Time, end time.Time) (*dataframe.DataFrame, *HistoryMeta, error) {
	if !begin.IsZero() && !end.IsZero() && end.Before(begin) {
		return nil, nil, ErrInvalidTimeRange
	}

	key := common.CacheKey("eod", ticker, currency)
	if raw, err := common.CacheGet(key); err == nil && len(raw) > 0 {
		var cached cachedHistory
		if err := json.Unmarshal(raw, &cached); err == nil {
			df := dataframe.New(cached.Dates)
			df.Insert(ticker, cached.Prices)
			return trimHistory(df, begin, end), &cached.Meta, nil
		}
	}

	df, meta, err := m.fetchWithRetry(ctx, ticker, currency)
	if err != nil {
		return nil, nil, err
	}

	cached := cachedHistory{
		Dates:  df.Dates,
		Prices: df.Col(ticker),
		Meta:   *meta,
	}
	if raw, err := json.Marshal(cached); err == nil {
		if err := common.CacheSet(key, raw); err != nil {
			log.Warn().Err(err).Str("Ticker", ticker).Msg("could not cache price history")
		}
	}

	return trimHistory(df, begin, end), meta, nil
}

// HistoryRange returns the first and last date the provider has data for
func (m *Manager) HistoryRange(ctx context.Context, ticker string, currency string) (time.Time, time.Time, error) {
	_, meta, err := m.GetHistory(ctx, ticker, currency, time.Time{}, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return meta.FirstAvailable, meta.LastAvailable, nil
}

// LookupISIN resolves an ISIN to a ticker, memoizing successful lookups
func (m *Manager) LookupISIN(ctx context.Context, isin string) (string, error) {
	m.locker.RLock()
	ticker, ok := m.isinCache[isin]
	m.locker.RUnlock()
	if ok {
		return ticker, nil
	}

	m.locker.RLock()
	provider := m.provider
	m.locker.RUnlock()

	ticker, err := provider.LookupISIN(ctx, isin)
	if err != nil {
		return "", err
	}

	m.locker.Lock()
	m.isinCache[isin] = ticker
	m.locker.Unlock()
	return ticker, nil
}

// DividendYield returns the trailing dividend yield for ticker
func (m *Manager) DividendYield(ctx context.Context, ticker string) (float64, error) {
	m.locker.RLock()
	provider := m.provider
	m.locker.RUnlock()
	return provider.DividendYield(ctx, ticker)
}

// RiskFreeRate resolves the risk free rate for the currency. The second
// return value reports whether the static fallback table was used.
func (m *Manager) RiskFreeRate(ctx context.Context, currency string, asOf time.Time, horizonYears int) (float64, bool, error) {
	subLog := log.With().Str("Currency", currency).Int("HorizonYears", horizonYears).Logger()

	series, live := RateSeriesFor(currency, horizonYears)
	if live {
		m.locker.RLock()
		rates := m.rates
		m.locker.RUnlock()

		rate, err := rates.Rate(ctx, series, asOf)
		if err == nil {
			// FRED publishes annual rates in percent
			return rate / 100.0, false, nil
		}
		subLog.Warn().Err(err).Str("Series", series).Msg("live rate source unavailable, using static fallback")
	}

	rate, err := FallbackRate(currency)
	if err != nil {
		return 0, false, err
	}

	if !live {
		subLog.Debug().Float64("Rate", rate).Msg("currency has no live rate proxy, using static table")
	}

	return rate, true, nil
}

func (m *Manager) fetchWithRetry(ctx context.Context, ticker string, currency string) (*dataframe.DataFrame, *HistoryMeta, error) {
	m.locker.RLock()
	provider := m.provider
	m.locker.RUnlock()

	df, meta, err := provider.GetHistory(ctx, ticker, currency, time.Time{}, time.Time{})
	if err == nil {
		return df, meta, nil
	}

	if errors.Is(err, ErrSymbolNotFound) {
		return nil, nil, err
	}

	// one retry for transient failures
	log.Warn().Err(err).Str("Ticker", ticker).Msg("history fetch failed, retrying once")
	df, meta, err = provider.GetHistory(ctx, ticker, currency, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, ErrDataUnavailable
	}
	return df, meta, nil
}

func trimHistory(df *dataframe.DataFrame, begin, end time.Time) *dataframe.DataFrame {
	if begin.IsZero() && end.IsZero() {
		return df
	}
	if end.IsZero() {
		end = df.End()
	}
	if begin.IsZero() {
		begin = df.Start()
	}
	return df.Trim(begin, end)
}
