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
	"context"
	"time"

	"github.com/quantpanel/qp-api/database"
	"github.com/rs/zerolog/log"
)

// Store provides read access to saved portfolio records
type Store interface {
	Portfolios(ctx context.Context, userID string) (map[string]*Record, error)
}

// PgxStore reads portfolio records from PostgreSQL. The comparison core
// never writes records; durability is owned by the portfolio builder
// elsewhere in the system.
type PgxStore struct{}

// NewPgxStore creates a store backed by the shared connection pool
func NewPgxStore() *PgxStore {
	return &PgxStore{}
}

// Portfolios returns all portfolio records owned by userID, keyed by id
func (s *PgxStore) Portfolios(ctx context.Context, userID string) (map[string]*Record, error) {
	subLog := log.With().Str("UserID", userID).Logger()

	rows, err := database.Pool().Query(ctx,
		`SELECT id, name, assets, weights, currency, created_at, rebalance_policy
		 FROM portfolios WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query portfolios")
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]*Record)
	for rows.Next() {
		var (
			rec       Record
			createdAt time.Time
			policy    string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Assets, &rec.Weights, &rec.Currency, &createdAt, &policy); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan portfolio record")
			return nil, err
		}
		rec.CreatedAt = createdAt
		rec.RebalancePolicy = RebalancePolicy(policy)

		if err := rec.Validate(); err != nil {
			// a corrupted record is skipped, not fatal for the rest
			subLog.Warn().Err(err).Str("PortfolioID", rec.ID).Msg("skipping invalid portfolio record")
			continue
		}

		records[rec.ID] = &rec
	}

	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("error iterating portfolio records")
		return nil, err
	}

	return records, nil
}
