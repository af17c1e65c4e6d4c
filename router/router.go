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

package router

import (
	"github.com/quantpanel/qp-api/handler"
	"github.com/quantpanel/qp-api/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/jwk"
)

// SetupRoutes registers the API routes
func SetupRoutes(app *fiber.App, jwksAutoRefresh *jwk.AutoRefresh, jwksURL string, compareHandler *handler.CompareHandler) {
	app.Get("/ping", handler.Ping)

	api := app.Group("/v1", middleware.QPAuth(jwksAutoRefresh, jwksURL))

	cmp := api.Group("/compare")
	cmp.Post("/", compareHandler.Compare)
	cmp.Get("/pending", compareHandler.Pending)
	cmp.Delete("/pending", compareHandler.ClearPending)
	cmp.Post("/seed", compareHandler.Seed)
}
