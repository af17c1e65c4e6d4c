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

package session_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/quantpanel/qp-api/session"
)

var _ = Describe("Accumulator", func() {
	Context("starting from idle", func() {
		var state *session.State

		BeforeEach(func() {
			state = session.Idle()
		})

		It("parks a single symbol as the anchor", func() {
			next := session.Advance(state, []string{"AAPL.US"})
			Expect(next.Stage).To(Equal(session.StageAwaiting))
			Expect(next.Anchor).To(Equal("AAPL.US"))
			Expect(next.Tokens).To(BeEmpty())
		})

		It("is ready immediately with two symbols", func() {
			next := session.Advance(state, []string{"AAPL.US", "MSFT.US"})
			Expect(next.Stage).To(Equal(session.StageReady))
			Expect(next.Tokens).To(Equal([]string{"AAPL.US", "MSFT.US"}))
		})

		It("stays idle on an empty submission", func() {
			next := session.Advance(state, nil)
			Expect(next.Stage).To(Equal(session.StageIdle))
		})

		It("builds the same token set across two turns as in one", func() {
			oneTurn := session.Advance(session.Idle(), []string{"AAPL.US", "MSFT.US"})

			first := session.Advance(session.Idle(), []string{"AAPL.US"})
			twoTurns := session.Advance(first, []string{"MSFT.US"})

			Expect(twoTurns.Stage).To(Equal(session.StageReady))
			Expect(twoTurns.Tokens).To(Equal(oneTurn.Tokens))
		})
	})

	Context("awaiting a second symbol", func() {
		var state *session.State

		BeforeEach(func() {
			state = session.Seed("SPY.US")
		})

		It("completes the pair with one more symbol", func() {
			next := session.Advance(state, []string{"AAPL.US"})
			Expect(next.Stage).To(Equal(session.StageReady))
			Expect(next.Tokens).To(Equal([]string{"SPY.US", "AAPL.US"}))
		})

		It("discards the anchor when a full submission arrives", func() {
			next := session.Advance(state, []string{"AAPL.US", "MSFT.US", "GOOG.US"})
			Expect(next.Stage).To(Equal(session.StageReady))
			Expect(next.Tokens).To(HaveLen(3))
			Expect(next.Tokens).NotTo(ContainElement("SPY.US"))
		})

		It("resets to idle on an empty submission", func() {
			next := session.Advance(state, []string{})
			Expect(next.Stage).To(Equal(session.StageIdle))
			Expect(next.Anchor).To(BeEmpty())
		})
	})
})

var _ = Describe("MemoryStore", func() {
	var (
		store *session.MemoryStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = session.NewMemoryStore()
		ctx = context.Background()
	})

	It("returns idle for an unknown user", func() {
		state, err := store.Get(ctx, "nobody")
		Expect(err).To(BeNil())
		Expect(state.Stage).To(Equal(session.StageIdle))
	})

	It("round-trips state", func() {
		Expect(store.Put(ctx, "u1", session.Seed("SPY.US"))).To(Succeed())

		state, err := store.Get(ctx, "u1")
		Expect(err).To(BeNil())
		Expect(state.Stage).To(Equal(session.StageAwaiting))
		Expect(state.Anchor).To(Equal("SPY.US"))
	})

	It("forgets cleared state", func() {
		Expect(store.Put(ctx, "u1", session.Seed("SPY.US"))).To(Succeed())
		Expect(store.Clear(ctx, "u1")).To(Succeed())

		state, err := store.Get(ctx, "u1")
		Expect(err).To(BeNil())
		Expect(state.Stage).To(Equal(session.StageIdle))
	})

	It("isolates users", func() {
		Expect(store.Put(ctx, "u1", session.Seed("SPY.US"))).To(Succeed())

		state, err := store.Get(ctx, "u2")
		Expect(err).To(BeNil())
		Expect(state.Stage).To(Equal(session.StageIdle))
	})
})
