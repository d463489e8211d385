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

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomoncle/vbforumquery"
	"github.com/tomoncle/vbforumquery/auth"
	"github.com/tomoncle/vbforumquery/config"
	"github.com/tomoncle/vbforumquery/types"
	"github.com/tomoncle/vbforumquery/utils"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP layer.
type Options struct {
	Addr              string
	CORSOrigins       []string
	RateLimitRequests int // 0 disables rate limiting
	RateLimitWindow   time.Duration
	ShutdownTimeout   time.Duration
	SearchLimits      types.PageLimits
	ZoneLimits        types.PageLimits
}

// OptionsFromConfig maps the process configuration onto Options.
func OptionsFromConfig(cfg *config.Config, settings *config.SearchSettings) Options {
	return Options{
		Addr:              cfg.Addr(),
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		SearchLimits:      settings.Search,
		ZoneLimits:        settings.Zone,
	}
}

type Server struct {
	opts    Options
	svc     vbforumquery.Service
	keys    *auth.KeyStore
	logger  logrus.FieldLogger
	handler http.Handler
}

// New wires the router. A nil logger selects the shared HTTP logger.
func New(opts Options, svc vbforumquery.Service, keys *auth.KeyStore, logger logrus.FieldLogger) *Server {
	defaults := config.DefaultSearchSettings()
	if opts.SearchLimits.DefaultLimit < 1 {
		opts.SearchLimits = defaults.Search
	}
	if opts.ZoneLimits.DefaultLimit < 1 {
		opts.ZoneLimits = defaults.Zone
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if logger == nil {
		logger = utils.NewLogger("HTTP")
	}

	s := &Server{opts: opts, svc: svc, keys: keys, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then stops accepting connections,
// waits up to ShutdownTimeout for in-flight requests and closes the
// service.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.opts.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(err, s.svc.Close())
		}
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.WithError(err).Warn("HTTP server did not drain in time")
	}
	return errors.Join(err, s.svc.Close())
}
