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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/quantpanel/qp-api/common"
	"github.com/quantpanel/qp-api/compare"
	"github.com/quantpanel/qp-api/data"
	"github.com/quantpanel/qp-api/database"
	"github.com/quantpanel/qp-api/handler"
	"github.com/quantpanel/qp-api/jwks"
	"github.com/quantpanel/qp-api/metrics"
	"github.com/quantpanel/qp-api/middleware"
	"github.com/quantpanel/qp-api/observability/opentelemetry"
	"github.com/quantpanel/qp-api/portfolio"
	"github.com/quantpanel/qp-api/router"
	"github.com/quantpanel/qp-api/session"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the qp-api server",
	Long:  `Run HTTP server that implements the Quant Panel API`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile.out")
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		shutdownOtel, err := opentelemetry.Setup()
		if err != nil {
			log.Error().Err(err).Msg("could not setup opentelemetry")
		} else {
			defer func() {
				if err := shutdownOtel(context.Background()); err != nil {
					log.Error().Err(err).Msg("error shutting down opentelemetry")
				}
			}()
		}

		if err := database.Connect(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		manager := data.GetManagerInstance()
		log.Info().Msg("initialized data framework")

		var sessions session.Store
		if viper.GetBool("cache.redis") {
			store, err := session.NewRedisStoreFromConfig()
			if err != nil {
				log.Fatal().Err(err).Msg("could not connect to session store")
			}
			sessions = store
		} else {
			log.Warn().Msg("redis is disabled; session state is per-instance only")
			sessions = session.NewMemoryStore()
		}

		compareHandler := &handler.CompareHandler{
			Sessions:   sessions,
			Portfolios: portfolio.NewPgxStore(),
			Builder:    compare.NewBuilder(manager),
			Engine:     metrics.NewEngine(manager),
		}

		app := fiber.New()

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("could not shutdown webserver")
			}
		}()

		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.allow_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))
		app.Use(middleware.NewLogger())

		jwksAutoRefresh, jwksURL := jwks.SetupJWKS()
		router.SetupRoutes(app, jwksAutoRefresh, jwksURL, compareHandler)

		// keep the risk free rates warm so the first comparison of the day
		// does not block on FRED
		scheduler := gocron.NewScheduler(common.GetTimezone())
		scheduler.Every(1).Day().At("07:00").Do(func() {
			ctx := context.Background()
			for currency := range compare.SupportedCurrencies {
				for _, horizon := range []int{1, 10} {
					if _, _, err := manager.RiskFreeRate(ctx, currency, time.Now(), horizon); err != nil {
						log.Warn().Err(err).Str("Currency", currency).Msg("rate warmup failed")
					}
				}
			}
		})
		scheduler.StartAsync()

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("could not start webserver")
		}
	},
}
