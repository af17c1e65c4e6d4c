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
	"sync"
	"time"

	"github.com/spf13/viper"
)

// DefaultTTL is the floor for accumulator expiry. A shorter TTL would expire
// state between two closely spaced turns of the same conversation.
const DefaultTTL = 5 * time.Minute

// TTL returns the configured accumulator expiry, clamped to DefaultTTL
func TTL() time.Duration {
	ttl := viper.GetDuration("session.ttl")
	if ttl < DefaultTTL {
		return DefaultTTL
	}
	return ttl
}

// Store persists accumulator state per user. A Get for an unknown or
// expired user returns the idle state, not an error.
type Store interface {
	Get(ctx context.Context, userID string) (*State, error)
	Put(ctx context.Context, userID string, state *State) error
	Clear(ctx context.Context, userID string) error
}

// MemoryStore is an in-process Store for tests and one-shot CLI runs
type MemoryStore struct {
	locker sync.Mutex
	states map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*State, error) {
	s.locker.Lock()
	defer s.locker.Unlock()

	state, ok := s.states[userID]
	if !ok || time.Since(state.UpdatedAt) > TTL() {
		return Idle(), nil
	}
	return state, nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, state *State) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.states[userID] = state
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	delete(s.states, userID)
	return nil
}
