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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/quantpanel/qp-api/common"
	"github.com/quantpanel/qp-api/dataframe"
	"github.com/quantpanel/qp-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var eodhdAPI = "https://eodhistoricaldata.com"

// exchange suffix to listing currency; tickers without a known suffix are
// assumed to trade in USD
var exchangeCurrency = map[string]string{
	"US":    "USD",
	"LSE":   "GBP",
	"XETRA": "EUR",
	"F":     "EUR",
	"PA":    "EUR",
	"AS":    "EUR",
	"MC":    "EUR",
	"MI":    "EUR",
	"MCX":   "RUB",
	"SW":    "CHF",
	"TSE":   "JPY",
	"FOREX": "USD",
}

type eodhd struct {
	apikey string
}

type eodhdBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

type eodhdSearchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	ISIN     string `json:"ISIN"`
}

// NewEODHD creates a new EOD Historical Data quote provider
func NewEODHD(key string) Provider {
	return &eodhd{
		apikey: key,
	}
}

// ListingCurrency returns the currency a ticker trades in, derived from its
// namespace suffix
func ListingCurrency(ticker string) string {
	parts := strings.Split(ticker, ".")
	if len(parts) < 2 {
		return "USD"
	}
	if currency, ok := exchangeCurrency[parts[len(parts)-1]]; ok {
		return currency
	}
	return "USD"
}

// GetHistory downloads the full adjusted close history for ticker, converts
// it into the requested currency and trims it to [begin, end]. The returned
// metadata reflects the provider's full coverage, not the requested window.
func (e *eodhd) GetHistory(ctx context.Context, ticker string, currency string, begin time.Time, end time.Time) (*dataframe.DataFrame, *HistoryMeta, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "eodhd.GetHistory")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{Key: "Ticker", Value: attribute.StringValue(ticker)},
		attribute.KeyValue{Key: "Currency", Value: attribute.StringValue(currency)},
	)

	df, err := e.downloadEOD(ctx, ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "eodhd download failed")
		return nil, nil, err
	}

	if df.Len() == 0 {
		return nil, nil, ErrEmptySeries
	}

	listingCurrency := ListingCurrency(ticker)
	if currency != "" && currency != listingCurrency {
		df, err = e.convertCurrency(ctx, df, ticker, listingCurrency, currency)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "currency conversion failed")
			return nil, nil, err
		}
	}

	meta := &HistoryMeta{
		FirstAvailable: df.Start(),
		LastAvailable:  df.End(),
	}

	if !begin.IsZero() || !end.IsZero() {
		if end.IsZero() {
			end = df.End()
		}
		df = df.Trim(begin, end)
	}

	return df, meta, nil
}

// LookupISIN resolves an ISIN to the provider's ticker notation
func (e *eodhd) LookupISIN(ctx context.Context, isin string) (string, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "eodhd.LookupISIN")
	defer span.End()

	url := fmt.Sprintf("%s/api/search/%s?api_token=%s&fmt=json", eodhdAPI, isin, e.apikey)
	body, err := e.get(ctx, url)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	results := []eodhdSearchResult{}
	if err := json.Unmarshal(body, &results); err != nil {
		log.Error().Err(err).Str("ISIN", isin).Msg("could not unmarshal eodhd search response")
		return "", ErrDataUnavailable
	}

	if len(results) == 0 {
		return "", ErrSymbolNotFound
	}

	return fmt.Sprintf("%s.%s", results[0].Code, results[0].Exchange), nil
}

// DividendYield returns the trailing dividend yield as a decimal fraction
func (e *eodhd) DividendYield(ctx context.Context, ticker string) (float64, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "eodhd.DividendYield")
	defer span.End()

	url := fmt.Sprintf("%s/api/fundamentals/%s?filter=Highlights::DividendYield&api_token=%s&fmt=json", eodhdAPI, ticker, e.apikey)
	body, err := e.get(ctx, url)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	var yield *float64
	if err := json.Unmarshal(body, &yield); err != nil {
		log.Warn().Err(err).Str("Ticker", ticker).Msg("could not unmarshal dividend yield")
		return 0, ErrNoDividend
	}

	if yield == nil {
		return 0, ErrNoDividend
	}

	return *yield, nil
}

func (e *eodhd) downloadEOD(ctx context.Context, ticker string) (*dataframe.DataFrame, error) {
	subLog := log.With().Str("Ticker", ticker).Str("Source", "eodhd").Logger()

	url := fmt.Sprintf("%s/api/eod/%s?api_token=%s&fmt=json", eodhdAPI, ticker, e.apikey)
	body, err := e.get(ctx, url)
	if err != nil {
		return nil, err
	}

	bars := []eodhdBar{}
	if err := json.Unmarshal(body, &bars); err != nil {
		subLog.Error().Err(err).Msg("could not unmarshal eodhd price response")
		return nil, ErrDataUnavailable
	}

	tz := common.GetTimezone()
	dates := make([]time.Time, 0, len(bars))
	prices := make([]float64, 0, len(bars))

	for _, bar := range bars {
		dt, err := time.ParseInLocation("2006-01-02", bar.Date, tz)
		if err != nil {
			subLog.Warn().Err(err).Str("Date", bar.Date).Msg("skipping bar with unparseable date")
			continue
		}

		price := bar.AdjustedClose
		if price == 0 {
			price = bar.Close
		}

		dates = append(dates, dt)
		prices = append(prices, price)
	}

	df := dataframe.New(dates)
	df.Insert(ticker, prices)
	return df, nil
}

// convertCurrency multiplies the price series by the FX cross from the
// listing currency into the requested currency, aligned on shared dates
func (e *eodhd) convertCurrency(ctx context.Context, df *dataframe.DataFrame, ticker, from, to string) (*dataframe.DataFrame, error) {
	pair := fmt.Sprintf("%s%s.FOREX", from, to)
	fx, err := e.downloadEOD(ctx, pair)
	if err != nil {
		return nil, err
	}

	joined := dataframe.InnerJoin(df, fx)
	if joined.Len() == 0 {
		return nil, ErrDataUnavailable
	}

	prices := joined.Col(ticker)
	rates := joined.Col(pair)
	converted := make([]float64, len(prices))
	for ii := range prices {
		converted[ii] = prices[ii] * rates[ii]
	}

	out := dataframe.New(joined.Dates)
	out.Insert(ticker, converted)
	return out, nil
}

func (e *eodhd) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("eodhd http request failed")
		return nil, ErrDataUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSymbolNotFound
	}

	if resp.StatusCode >= 400 {
		log.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg("eodhd returned invalid response code")
		return nil, ErrDataUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("could not read eodhd response body")
		return nil, ErrDataUnavailable
	}

	return body, nil
}
