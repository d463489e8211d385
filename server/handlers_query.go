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
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomoncle/vbforumquery/types"
)

var validate = validator.New()

type queryRequest struct {
	SQL    string        `json:"sql" validate:"required"`
	Params []interface{} `json:"params"`
}

type queryResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	RowCount int         `json:"rowCount"`
}

type execResult struct {
	AffectedRows int64 `json:"affectedRows"`
	InsertID     int64 `json:"insertId"`
}

type rowsResponse struct {
	Success bool         `json:"success"`
	Data    []*types.Row `json:"data"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQueryRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.Execute(r.Context(), req.SQL, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}

	if res.IsQuery {
		writeJSON(w, http.StatusOK, queryResponse{Success: true, Data: res.Rows, RowCount: len(res.Rows)})
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Success: true,
		Data:    execResult{AffectedRows: res.RowsAffected, InsertID: res.LastInsertID},
	})
}

func decodeQueryRequest(w http.ResponseWriter, r *http.Request) (*queryRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, types.NewError(types.ErrBadRequest, "Request body too large")
		}
		return nil, types.NewError(types.ErrBadRequest, "Failed to read request body")
	}

	var req queryRequest
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			return nil, types.NewError(types.ErrBadRequest, "Invalid JSON body")
		}
	}
	if err := validate.Struct(&req); err != nil {
		return nil, types.NewError(types.ErrBadRequest, "SQL query is required")
	}

	for i, p := range req.Params {
		req.Params[i] = normalizeParam(p)
	}
	return &req, nil
}

// normalizeParam turns decoded JSON into values the driver can bind.
// Integral numbers become int64, other numbers float64 and nested arrays
// or objects their JSON text.
func normalizeParam(p interface{}) interface{} {
	switch v := p.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []interface{}, map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.ListTables(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Success: true, Data: rows})
}

func (s *Server) handleDescribeTable(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.DescribeTable(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Success: true, Data: rows})
}
