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

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/vbforumquery/metrics"
)

func TestSlowQueryHook(t *testing.T) {
	l, hook := test.NewNullLogger()
	h := &slowQueryHook{slowTime: time.Millisecond, logger: NewDefaultLogger(l)}

	h.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT 1",
		StartTime: time.Now(),
	})
	assert.Empty(t, hook.Entries)

	h.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT SLEEP(1)",
		StartTime: time.Now().Add(-time.Second),
	})
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "slow query detected")
	assert.Equal(t, "SELECT SLEEP(1)", hook.LastEntry().Data["query"])

	h.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT * FROM nope",
		StartTime: time.Now().Add(-time.Second),
		Err:       errors.New("no such table: nope"),
	})
	require.Len(t, hook.Entries, 2)
	assert.Contains(t, hook.LastEntry().Message, "slow query failed")
}

func TestMetricsHookCountsFailures(t *testing.T) {
	counter := metrics.DBQueryErrors.WithLabelValues("SELECT", NoTableErr.String())
	before := testutil.ToFloat64(counter)

	h := &metricsHook{}
	h.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT * FROM nope",
		StartTime: time.Now(),
		Err:       errors.New("SQL logic error: no such table: nope (1)"),
	})

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObservedRunnerReportsLikeHooks(t *testing.T) {
	sqlDB, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	l, hook := test.NewNullLogger()
	r := &observedRunner{db: sqlDB, slowTime: time.Nanosecond, logger: NewDefaultLogger(l)}

	rows, err := r.QueryContext(context.Background(), "SELECT ? AS v", 1)
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.NotEmpty(t, hook.Entries)
	assert.Contains(t, hook.LastEntry().Message, "slow query detected")
	assert.Equal(t, "SELECT ? AS v", hook.LastEntry().Data["query"])

	counter := metrics.DBQueryErrors.WithLabelValues("DELETE", NoTableErr.String())
	before := testutil.ToFloat64(counter)
	_, err = r.ExecContext(context.Background(), "DELETE FROM nope WHERE id = ?", 1)
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Contains(t, hook.LastEntry().Message, "slow query failed")
}

func TestToFields(t *testing.T) {
	f := toFields([]interface{}{"a", 1, "b", "two", "dangling"})
	assert.Equal(t, logrus.Fields{"a": 1, "b": "two"}, f)
}
