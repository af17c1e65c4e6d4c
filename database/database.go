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

package database

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the subset of pgx used by the read-only stores; it is
// satisfied by both pgxpool.Pool and pgxmock connections
type PgxIface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

var pool PgxIface

// Connect establishes the connection pool from viper's database.url
func Connect() error {
	p, err := pgxpool.Connect(context.Background(), viper.GetString("database.url"))
	if err != nil {
		return err
	}
	if err = p.Ping(context.Background()); err != nil {
		return err
	}
	pool = p
	log.Info().Msg("connected to database")
	return nil
}

// SetPool replaces the active pool; used by tests to install pgxmock
func SetPool(p PgxIface) {
	pool = p
}

// Pool returns the active connection pool
func Pool() PgxIface {
	return pool
}
