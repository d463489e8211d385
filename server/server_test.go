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
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/vbforumquery"
	"github.com/tomoncle/vbforumquery/auth"
	"github.com/tomoncle/vbforumquery/database"
	"github.com/tomoncle/vbforumquery/database/databasetest"
	"github.com/tomoncle/vbforumquery/repository"
	"github.com/tomoncle/vbforumquery/types"
)

const (
	regularKey = "reg-key-1"
	adminKey   = "adm-key-1"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testKeys() *auth.KeyStore {
	return auth.NewKeyStore([]string{regularKey}, []string{adminKey})
}

// newTestServer serves the seeded SQLite forum.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := vbforumquery.NewService(databasetest.NewForumPool(t), nil)
	return New(Options{}, svc, testKeys(), quietLogger())
}

func do(t *testing.T, h http.Handler, method, target, key string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(auth.HeaderName, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// stubService lets tests control health and observe Close.
type stubService struct {
	health  *database.HealthStatus
	closed  atomic.Bool
	execute func() (*database.Result, error)
}

func (s *stubService) Execute(context.Context, string, []interface{}) (*database.Result, error) {
	if s.execute != nil {
		return s.execute()
	}
	return &database.Result{IsQuery: true}, nil
}

func (s *stubService) ListTables(context.Context) ([]*types.Row, error) { return nil, nil }

func (s *stubService) DescribeTable(context.Context, string) ([]*types.Row, error) {
	return nil, nil
}

func (s *stubService) SearchPosts(_ context.Context, _ string, page *types.PageRequest) (*types.Pagination[repository.Post], error) {
	return types.NewPagination[repository.Post](page, nil), nil
}

func (s *stubService) SearchZone(_ context.Context, _ string, page *types.PageRequest) (*types.Pagination[repository.Post], error) {
	return types.NewPagination[repository.Post](page, nil), nil
}

func (s *stubService) Health(context.Context) *database.HealthStatus { return s.health }

func (s *stubService) Close() error {
	s.closed.Store(true)
	return nil
}

func TestIndexIsPublic(t *testing.T) {
	h := newTestServer(t).Handler()

	for _, path := range []string{"/", "/api"} {
		rec := do(t, h, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode(t, rec)
		assert.Equal(t, "vbforumquery", body["name"])
		assert.Equal(t, vbforumquery.Version, body["version"])

		authInfo, ok := body["auth"].(map[string]interface{})
		require.True(t, ok, path)
		assert.Equal(t, auth.HeaderName, authInfo["header"])
		assert.Contains(t, authInfo["tiers"], "query")
		assert.Contains(t, authInfo["tiers"], "admin")
	}
}

func TestAuthorization(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		body   string
		want   int
		errMsg string
	}{
		{"search without key", "GET", "/query/search?q=dragon", "", "", 401, auth.MsgKeyRequired},
		{"query without key", "POST", "/query", "", `{"sql":"SELECT 1"}`, 401, auth.MsgKeyRequired},
		{"health without key", "GET", "/health", "", "", 401, auth.MsgKeyRequired},
		{"unknown key", "GET", "/query/search?q=dragon", "nope", "", 403, auth.MsgKeyInvalid},
		{"regular key on query", "POST", "/query", regularKey, `{"sql":"SELECT 1"}`, 403, auth.MsgKeyInvalid},
		{"regular key on tables", "GET", "/query/tables", regularKey, "", 403, auth.MsgKeyInvalid},
		{"regular key on metrics", "GET", "/metrics", regularKey, "", 403, auth.MsgKeyInvalid},
		{"regular key on search", "GET", "/query/search?q=dragon", regularKey, "", 200, ""},
		{"regular key on zone search", "GET", "/zonequery/search?q=zones", regularKey, "", 200, ""},
		{"admin key on search", "GET", "/query/search?q=dragon", adminKey, "", 200, ""},
		{"admin key on query", "POST", "/query", adminKey, `{"sql":"SELECT 1"}`, 200, ""},
		{"api prefix", "GET", "/api/query/search?q=dragon", regularKey, "", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.key, tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.errMsg != "" {
				body := decode(t, rec)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.errMsg, body["error"])
			}
		})
	}
}

func TestKeyFromQueryParameter(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/query/search?q=dragon&api_key="+regularKey, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/nowhere", adminKey, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/query/search", nil)
	req.Header.Set("Origin", "https://forum.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-API-Key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	svc := &stubService{}
	h := New(Options{RateLimitRequests: 2, RateLimitWindow: time.Minute}, svc, testKeys(), quietLogger()).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/query/search?q=a", regularKey, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/query/search?q=a", regularKey, "").Code)

	rec := do(t, h, "GET", "/query/search?q=a", regularKey, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	// Another key has its own budget.
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/query/search?q=a", adminKey, "").Code)
}

func TestRateLimitUnknownKeysShareClientBudget(t *testing.T) {
	svc := &stubService{}
	h := New(Options{RateLimitRequests: 2, RateLimitWindow: time.Minute}, svc, testKeys(), quietLogger()).Handler()

	for i := 0; i < 2; i++ {
		rec := do(t, h, "GET", "/query/search?q=a", fmt.Sprintf("guess-%d", i), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	rec := do(t, h, "GET", "/query/search?q=a", "guess-2", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, h, "GET", "/query/search?q=a", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A valid key is counted on its own.
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/query/search?q=a", regularKey, "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(Options{}, &stubService{}, testKeys(), quietLogger()).Handler()

	rec := do(t, h, "GET", "/query", adminKey, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Method not allowed", body["error"])

	rec = do(t, h, "DELETE", "/api/query/search", regularKey, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	svc := &stubService{execute: func() (*database.Result, error) { panic("boom") }}
	h := New(Options{}, svc, testKeys(), quietLogger()).Handler()

	rec := do(t, h, "POST", "/query", adminKey, `{"sql":"SELECT 1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	svc := &stubService{}
	srv := New(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, svc, testKeys(), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, svc.closed.Load())
}
