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
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"

	"github.com/tomoncle/vbforumquery/metrics"
)

var (
	slowQueryColor = color.New(color.FgYellow, color.Bold)
	failedColor    = color.New(color.BgRed, color.FgWhite)
)

// slowQueryHook warns about statements that take longer than slowTime.
type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*slowQueryHook)(nil)

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	warnSlowQuery(h.logger, h.slowTime, event.Query, time.Since(event.StartTime), event.Err)
}

func warnSlowQuery(logger Logger, slowTime time.Duration, query string, duration time.Duration, err error) {
	if logger == nil || slowTime <= 0 || duration <= slowTime {
		return
	}

	if err != nil && !isBenignQueryError(err) {
		logger.Warn(failedColor.Sprint("Database slow query failed"),
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", slowTime,
			"query", query,
			"error", err,
		)
		return
	}
	logger.Warn(slowQueryColor.Sprint("Database slow query detected"),
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", slowTime,
		"query", query,
	)
}

// metricsHook records every statement's duration and, for failures, the
// classified SQL error type.
type metricsHook struct{}

var _ bun.QueryHook = (*metricsHook)(nil)

func (h *metricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *metricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	recordQuery(event.Operation(), time.Since(event.StartTime), event.Err)
}

func recordQuery(operation string, duration time.Duration, err error) {
	errType := ""
	if err != nil && !isBenignQueryError(err) {
		_, sqlErr := IsSqlError(err)
		errType = sqlErr.String()
	}
	metrics.RecordDBQuery(operation, duration, errType)
}

func isBenignQueryError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, sql.ErrTxDone)
}
