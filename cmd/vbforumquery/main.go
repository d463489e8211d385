/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/vbforumquery"
	"github.com/tomoncle/vbforumquery/auth"
	"github.com/tomoncle/vbforumquery/config"
	"github.com/tomoncle/vbforumquery/database"
	"github.com/tomoncle/vbforumquery/server"
	"github.com/tomoncle/vbforumquery/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vbforumquery: %v\n", err)
		os.Exit(1)
	}
	utils.ConfigureLogLevel(cfg.LogLevel)
	utils.ConfigureConsoleLogFormat(cfg.LogFormat)
	logger := utils.NewLogger("MAIN")

	settings, err := config.LoadSearchSettings(cfg.SearchConfigFile, database.GetLogger())
	if err != nil {
		logger.WithError(err).Error("Failed to load search settings")
		os.Exit(1)
	}

	keys, err := auth.Load(auth.Options{
		APIKeys:          cfg.APIKeys,
		AdminAPIKeys:     cfg.AdminAPIKeys,
		APIKeysFile:      cfg.APIKeysFile,
		AdminAPIKeysFile: cfg.AdminAPIKeysFile,
	}, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to load API keys")
		os.Exit(1)
	}
	if regular, admin := keys.Len(); regular+admin == 0 {
		logger.Warn("No API keys configured, every protected route will answer 401 or 403")
	} else {
		logger.WithField("regular", regular).WithField("admin", admin).Info("API keys loaded")
	}

	pool, err := database.NewPool(cfg.ConnectionConfig(), nil)
	if err != nil {
		logger.WithError(err).Error("Invalid database configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The pool reconnects on demand, so an unreachable database only warns.
	if err := pool.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Database not reachable at startup")
	}

	svc := vbforumquery.NewService(pool, settings)
	srv := server.New(server.OptionsFromConfig(cfg, settings), svc, keys, nil)

	logger.WithField("version", vbforumquery.Version).Info("vbforumquery starting")
	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	logger.Info("Server closed")
}
