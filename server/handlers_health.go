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
	"time"
)

type healthResponse struct {
	Status    string     `json:"status"`
	Database  string     `json:"database"`
	Timestamp string     `json:"timestamp"`
	Pool      poolStatus `json:"pool"`
	Error     string     `json:"error,omitempty"`
}

type poolStatus struct {
	MaxOpenConns   int   `json:"max_open_conns"`
	ActiveConns    int   `json:"active_conns"`
	IdleConns      int   `json:"idle_conns"`
	OpenConns      int   `json:"open_conns"`
	WaitCount      int64 `json:"wait_count"`
	ResponseTimeMs int64 `json:"response_time_ms"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.svc.Health(r.Context())

	resp := healthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Pool: poolStatus{
			MaxOpenConns:   status.MaxOpenConns,
			ActiveConns:    status.ActiveConns,
			IdleConns:      status.IdleConns,
			OpenConns:      status.OpenConns,
			WaitCount:      status.WaitCount,
			ResponseTimeMs: status.ResponseTime.Milliseconds(),
		},
	}
	if !status.Healthy {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = status.LastError
		if resp.Error == "" {
			resp.Error = "Unknown error"
		}
		s.logger.WithField("error", resp.Error).Warn("Database health check failed")
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
