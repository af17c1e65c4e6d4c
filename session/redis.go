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

package session

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// RedisStore persists accumulator state in redis so that multi-turn input
// survives server restarts and load balancing across instances
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewRedisStoreFromConfig connects to the redis instance named in
// cache.redis_url
func NewRedisStoreFromConfig() (*RedisStore, error) {
	opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
	if err != nil {
		log.Error().Err(err).Msg("could not parse redis URL for session store")
		return nil, err
	}
	return NewRedisStore(redis.NewClient(opt)), nil
}

func sessionKey(userID string) string {
	return "session:" + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*State, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return Idle(), nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Warn().Err(err).Str("UserID", userID).Msg("corrupt session state, resetting to idle")
		return Idle(), nil
	}

	if time.Since(state.UpdatedAt) > TTL() {
		return Idle(), nil
	}
	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(userID), raw, TTL()).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}
