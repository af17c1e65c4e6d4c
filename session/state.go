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

// Package session tracks symbols a user submits across multiple turns
// before a comparison has enough of them to execute.
package session

import "time"

type Stage string

const (
	StageIdle     Stage = "IDLE"
	StageAwaiting Stage = "AWAITING_SECOND_SYMBOL"
	StageReady    Stage = "READY"
)

// State is the per-user input accumulator. Anchor holds the lone symbol
// from a one-symbol submission while the accumulator waits for a second.
type State struct {
	Stage     Stage     `json:"stage"`
	Anchor    string    `json:"anchor,omitempty"`
	Tokens    []string  `json:"tokens,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Idle returns the initial accumulator state
func Idle() *State {
	return &State{Stage: StageIdle, UpdatedAt: time.Now()}
}

// Seed primes the accumulator with an anchor symbol chosen out of band,
// for example from a chart the user is already looking at
func Seed(anchor string) *State {
	return &State{
		Stage:     StageAwaiting,
		Anchor:    anchor,
		UpdatedAt: time.Now(),
	}
}

// Advance applies a submission to the accumulator and returns the next
// state. The transition rules:
//
//	IDLE      + 1 symbol   -> AWAITING_SECOND_SYMBOL, symbol becomes anchor
//	AWAITING  + 1 symbol   -> READY with [anchor, symbol]
//	AWAITING  + 2+ symbols -> READY with the new symbols; anchor is
//	                          discarded because a full submission expresses
//	                          complete intent on its own
//	any state + 2+ symbols -> READY with the new symbols
//	any state + 0 symbols  -> IDLE
//
// Advance is pure; persisting the result is the caller's concern.
func Advance(state *State, symbols []string) *State {
	now := time.Now()

	switch {
	case len(symbols) == 0:
		return &State{Stage: StageIdle, UpdatedAt: now}
	case len(symbols) >= 2:
		return &State{
			Stage:     StageReady,
			Tokens:    append([]string{}, symbols...),
			UpdatedAt: now,
		}
	case state != nil && state.Stage == StageAwaiting:
		return &State{
			Stage:     StageReady,
			Tokens:    []string{state.Anchor, symbols[0]},
			UpdatedAt: now,
		}
	default:
		return &State{
			Stage:     StageAwaiting,
			Anchor:    symbols[0],
			UpdatedAt: now,
		}
	}
}
