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
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomoncle/vbforumquery/auth"
	"github.com/tomoncle/vbforumquery/metrics"
	"github.com/tomoncle/vbforumquery/types"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(trackMetrics)
	r.Use(s.cors())
	r.Use(s.rateLimit())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, types.NewError(types.ErrNotFound, "Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, types.NewError(types.ErrMethodNotAllowed, "Method not allowed"))
	})

	s.mount(r)
	r.Route("/api", s.mount)
	return r
}

func (s *Server) mount(r chi.Router) {
	r.Get("/", s.handleIndex)

	r.Group(func(r chi.Router) {
		r.Use(s.requireTier(auth.TierAdmin))
		r.Post("/query", s.handleQuery)
		r.Get("/query/tables", s.handleListTables)
		r.Get("/query/tables/{name}", s.handleDescribeTable)
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", metrics.Handler())
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireTier(auth.TierQuery))
		r.Get("/query/search", s.handleSearch)
		r.Get("/zonequery/search", s.handleZoneSearch)
	})
}
