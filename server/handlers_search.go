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

	"github.com/tomoncle/vbforumquery/repository"
	"github.com/tomoncle/vbforumquery/types"
)

type searchResponse struct {
	Success    bool           `json:"success"`
	Query      string         `json:"query"`
	Data       searchData     `json:"data"`
	Pagination types.PageMeta `json:"pagination"`
}

type searchData struct {
	Posts []*repository.Post `json:"posts"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := types.ParsePageRequest(q.Get("limit"), q.Get("offset"), s.opts.SearchLimits)

	result, err := s.svc.SearchPosts(r.Context(), q.Get("q"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSearch(w, q.Get("q"), result)
}

func (s *Server) handleZoneSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := types.ParsePageRequest(q.Get("limit"), q.Get("offset"), s.opts.ZoneLimits)

	result, err := s.svc.SearchZone(r.Context(), q.Get("q"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSearch(w, q.Get("q"), result)
}

func writeSearch(w http.ResponseWriter, query string, result *types.Pagination[repository.Post]) {
	writeJSON(w, http.StatusOK, searchResponse{
		Success:    true,
		Query:      query,
		Data:       searchData{Posts: result.Items},
		Pagination: result.Meta(),
	})
}
