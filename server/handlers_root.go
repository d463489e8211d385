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

	"github.com/tomoncle/vbforumquery"
	"github.com/tomoncle/vbforumquery/auth"
)

type indexResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Auth      indexAuth         `json:"auth"`
}

type indexAuth struct {
	Header     string            `json:"header"`
	QueryParam string            `json:"query_param"`
	Tiers      map[string]string `json:"tiers"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tiers := make(map[string]string)
	for _, t := range auth.Tiers() {
		tiers[t.Name()] = t.Desc()
	}
	writeJSON(w, http.StatusOK, indexResponse{
		Name:    "vbforumquery",
		Version: vbforumquery.Version,
		Endpoints: map[string]string{
			"health":        "/api/health",
			"query":         "/api/query",
			"tables":        "/api/query/tables",
			"describeTable": "/api/query/tables/:tableName",
			"search":        "/api/query/search?q=",
			"zoneSearch":    "/api/zonequery/search?q=",
			"metrics":       "/api/metrics",
		},
		Auth: indexAuth{
			Header:     auth.HeaderName,
			QueryParam: auth.QueryParam,
			Tiers:      tiers,
		},
	})
}
