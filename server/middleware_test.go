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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/vbforumquery"
	"github.com/tomoncle/vbforumquery/database/databasetest"
)

func newLoggedServer(t *testing.T) (http.Handler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	svc := vbforumquery.NewService(databasetest.NewForumPool(t), nil)
	return New(Options{}, svc, testKeys(), logger).Handler(), hook
}

func requestEntry(t *testing.T, hook *test.Hook) *logrus.Entry {
	t.Helper()
	for i := len(hook.Entries) - 1; i >= 0; i-- {
		if hook.Entries[i].Message == "request" {
			return &hook.Entries[i]
		}
	}
	t.Fatal("no request log entry")
	return nil
}

func TestRequestLogSearch(t *testing.T) {
	h, hook := newLoggedServer(t)

	rec := do(t, h, http.MethodGet, "/query/search?q=dragon", regularKey, "")
	require.Equal(t, http.StatusOK, rec.Code)

	entry := requestEntry(t, hook)
	assert.Equal(t, "dragon", entry.Data["query"])
	assert.Equal(t, "reg-***", entry.Data["api_key"])
	assert.Equal(t, "192.0.2.1", entry.Data["ip"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func TestRequestLogQueryBody(t *testing.T) {
	h, hook := newLoggedServer(t)

	rec := do(t, h, http.MethodPost, "/query", adminKey, `{"sql":"SELECT 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, "body must still reach the handler")

	entry := requestEntry(t, hook)
	assert.Equal(t, "SELECT 1", entry.Data["query"])
	assert.Equal(t, "adm-***", entry.Data["api_key"])
}

func TestRequestLogFallsBackToPath(t *testing.T) {
	h, hook := newLoggedServer(t)

	rec := do(t, h, http.MethodGet, "/query/tables", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	entry := requestEntry(t, hook)
	assert.Equal(t, "/query/tables", entry.Data["query"])
	assert.Equal(t, "none", entry.Data["api_key"])
	assert.Equal(t, http.StatusUnauthorized, entry.Data["status"])
}

func TestRequestLogUsesForwardedIP(t *testing.T) {
	h, hook := newLoggedServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", requestEntry(t, hook).Data["ip"])
}

func TestLoggedQueryRestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"sql":"SELECT 2"}`))
	req.Header.Set("Content-Type", "application/json")

	assert.Equal(t, "SELECT 2", loggedQuery(req))

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"sql":"SELECT 2"}`, string(rest))
}
