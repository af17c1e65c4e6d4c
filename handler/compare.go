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

package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/quantpanel/qp-api/compare"
	"github.com/quantpanel/qp-api/metrics"
	"github.com/quantpanel/qp-api/portfolio"
	"github.com/quantpanel/qp-api/session"
	"github.com/rs/zerolog/log"
)

// CompareHandler serves the comparison endpoints. Symbols submitted with too
// few tokens park in the per-user accumulator; a READY accumulator executes
// the comparison and resets.
type CompareHandler struct {
	Sessions   session.Store
	Portfolios portfolio.Store
	Builder    *compare.Builder
	Engine     *metrics.Engine
}

type compareRequest struct {
	Symbols []string `json:"symbols"`
}

type pendingResponse struct {
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Anchor string `json:"anchor,omitempty"`
}

// Compare accepts a symbol submission and either executes a comparison or
// parks the submission in the accumulator
func (h *CompareHandler) Compare(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return fiber.ErrUnauthorized
	}

	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "could not parse request body"})
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, sym := range req.Symbols {
		if trimmed := strings.TrimSpace(sym); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}

	state, err := h.Sessions.Get(c.Context(), userID)
	if err != nil {
		log.Error().Stack().Err(err).Str("UserID", userID).Msg("could not load session state")
		return fiber.ErrInternalServerError
	}

	next := session.Advance(state, symbols)
	if next.Stage != session.StageReady {
		if err := h.Sessions.Put(c.Context(), userID, next); err != nil {
			log.Error().Stack().Err(err).Str("UserID", userID).Msg("could not save session state")
			return fiber.ErrInternalServerError
		}
		return c.Status(fiber.StatusAccepted).JSON(pendingResponse{
			Status: "pending",
			Stage:  string(next.Stage),
			Anchor: next.Anchor,
		})
	}

	panel, err := h.execute(c, userID, next.Tokens)
	if err != nil {
		return h.compareError(c, userID, next, err)
	}

	// the accumulator resets once a comparison executes
	if err := h.Sessions.Clear(c.Context(), userID); err != nil {
		log.Warn().Err(err).Str("UserID", userID).Msg("could not clear session state")
	}

	return c.JSON(panel)
}

func (h *CompareHandler) execute(c *fiber.Ctx, userID string, tokens []string) (*metrics.Panel, error) {
	symbols, currency, period, err := compare.ExtractOverrides(tokens)
	if err != nil {
		return nil, err
	}

	records, err := h.Portfolios.Portfolios(c.Context(), userID)
	if err != nil {
		return nil, err
	}

	classified, err := compare.ClassifyAll(symbols, portfolio.KnownIDs(records))
	if err != nil {
		return nil, err
	}

	result, err := h.Builder.Build(c.Context(), classified, records, currency, period)
	if err != nil {
		return nil, err
	}

	return h.Engine.Run(c.Context(), result)
}

// compareError maps the error taxonomy onto HTTP statuses. Input and
// resolution errors are the user's to fix, so the accumulator resets; a
// data error is transient and keeps the submitted tokens alive for a retry.
func (h *CompareHandler) compareError(c *fiber.Ctx, userID string, state *session.State, err error) error {
	var (
		inputErr      *compare.InputError
		resolutionErr *portfolio.ResolutionError
	)

	switch {
	case errors.As(err, &inputErr):
		h.clearQuietly(c, userID)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "code": string(inputErr.Kind), "message": inputErr.Error()})
	case errors.As(err, &resolutionErr):
		h.clearQuietly(c, userID)
		status := fiber.StatusUnprocessableEntity
		if portfolio.IsNotFound(err) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).
			JSON(fiber.Map{"status": "error", "code": string(resolutionErr.Kind), "message": resolutionErr.Error()})
	default:
		log.Error().Stack().Err(err).Str("UserID", userID).Msg("comparison failed on market data")
		if putErr := h.Sessions.Put(c.Context(), userID, state); putErr != nil {
			log.Warn().Err(putErr).Str("UserID", userID).Msg("could not preserve session state")
		}
		return c.Status(fiber.StatusBadGateway).
			JSON(fiber.Map{"status": "error", "code": "DATA_UNAVAILABLE",
				"message": "market data is temporarily unavailable; your symbols were kept, try again"})
	}
}

func (h *CompareHandler) clearQuietly(c *fiber.Ctx, userID string) {
	if err := h.Sessions.Clear(c.Context(), userID); err != nil {
		log.Warn().Err(err).Str("UserID", userID).Msg("could not clear session state")
	}
}

// Pending reports the user's accumulator state
func (h *CompareHandler) Pending(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return fiber.ErrUnauthorized
	}

	state, err := h.Sessions.Get(c.Context(), userID)
	if err != nil {
		log.Error().Stack().Err(err).Str("UserID", userID).Msg("could not load session state")
		return fiber.ErrInternalServerError
	}
	return c.JSON(state)
}

type seedRequest struct {
	Symbol string `json:"symbol"`
}

// Seed primes the accumulator with an anchor symbol, for example from a
// chart the user is viewing
func (h *CompareHandler) Seed(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return fiber.ErrUnauthorized
	}

	var req seedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "could not parse request body"})
	}

	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "symbol may not be empty"})
	}

	state := session.Seed(symbol)
	if err := h.Sessions.Put(c.Context(), userID, state); err != nil {
		log.Error().Stack().Err(err).Str("UserID", userID).Msg("could not save session state")
		return fiber.ErrInternalServerError
	}
	return c.JSON(state)
}

// ClearPending discards the user's accumulator state
func (h *CompareHandler) ClearPending(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return fiber.ErrUnauthorized
	}

	if err := h.Sessions.Clear(c.Context(), userID); err != nil {
		log.Error().Stack().Err(err).Str("UserID", userID).Msg("could not clear session state")
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}
