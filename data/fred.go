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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/quantpanel/qp-api/common"
	"github.com/quantpanel/qp-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var fredURL = "https://fred.stlouisfed.org"

type fred struct{}

// NewFred creates a new FRED reference-rate provider
func NewFred() RateProvider {
	return &fred{}
}

// Rate returns the latest observation of the series on or before asOf,
// expressed as an annual rate in percent (as published by FRED)
func (f *fred) Rate(ctx context.Context, series string, asOf time.Time) (float64, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "fred.Rate")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{Key: "Series", Value: attribute.StringValue(series)},
	)

	subLog := log.With().Str("Series", series).Time("AsOf", asOf).Logger()

	// look back one quarter so the window always contains an observation
	begin := asOf.AddDate(0, -3, 0)
	url := fmt.Sprintf("%s/graph/fredgraph.csv?mode=fred&id=%s&cosd=%s&coed=%s&fq=Daily&fam=avg",
		fredURL, series, begin.Format("2006-01-02"), asOf.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fred http request failed")
		subLog.Error().Err(err).Msg("fred http request failed")
		return 0, ErrRateUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg("fred returned invalid response code")
		return 0, ErrRateUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Error().Err(err).Msg("could not read fred response body")
		return 0, ErrRateUnavailable
	}

	rate, rateDate, err := latestObservation(body)
	if err != nil {
		subLog.Warn().Err(err).Msg("no usable observation in fred response")
		return 0, ErrRateUnavailable
	}

	subLog.Debug().Float64("Rate", rate).Time("RateDate", rateDate).Msg("resolved reference rate")
	return rate, nil
}

// latestObservation scans a fredgraph CSV payload for the last parseable
// value; FRED marks missing observations with "."
func latestObservation(body []byte) (float64, time.Time, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	records, err := reader.ReadAll()
	if err != nil {
		return 0, time.Time{}, err
	}

	if len(records) < 2 {
		return 0, time.Time{}, ErrEmptySeries
	}

	tz := common.GetTimezone()
	var (
		rate  float64
		date  time.Time
		found bool
	)

	for _, record := range records[1:] {
		if len(record) < 2 || record[1] == "." {
			continue
		}

		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}

		dt, err := time.ParseInLocation("2006-01-02", record[0], tz)
		if err != nil {
			continue
		}

		rate = v
		date = dt
		found = true
	}

	if !found {
		return 0, time.Time{}, ErrEmptySeries
	}

	return rate, date, nil
}
