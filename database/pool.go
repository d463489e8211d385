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
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Pool is the process-wide handle on the database. It is safe for
// concurrent use; all statements share at most MaxOpenConns connections.
type Pool struct {
	manager AbstractDatabaseManager
	config  *ConnectionConfig
	logger  Logger
}

// DB returns the connected Bun handle, connecting on first use. A failed
// connect is reported to this caller only; the next caller tries again.
func (p *Pool) DB(ctx context.Context) (*bun.DB, error) {
	if db := p.manager.GetDB(); db != nil {
		return db, nil
	}
	if err := p.manager.Connect(ctx); err != nil {
		return nil, err
	}
	if db := p.manager.GetDB(); db != nil {
		return db, nil
	}
	return nil, fmt.Errorf("database not connected")
}

// Execute runs statement with params bound to its "?" placeholders.
// Row-returning statements yield Rows; others yield the affected row count
// and last insert id.
//
// Statements with params are handed to the driver as prepared statements,
// so a "?" inside a string literal is never taken for a placeholder.
func (p *Pool) Execute(ctx context.Context, statement string, params []interface{}) (*Result, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, err
	}

	var runner sqlRunner = db
	if len(params) > 0 {
		if dialectOf(db) == dialect.PG {
			statement = RebindDollar(statement)
		}
		runner = &observedRunner{db: db.DB, slowTime: p.config.SlowQueryTime, logger: p.logger}
	} else {
		params = nil
	}

	if IsQueryStatement(statement) {
		rows, err := runner.QueryContext(ctx, statement, params...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		columns, data, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		return &Result{IsQuery: true, Columns: columns, Rows: data}, nil
	}

	res, err := runner.ExecContext(ctx, statement, params...)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	// lib/pq does not support LastInsertId.
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}
	return result, nil
}

type sqlRunner interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// observedRunner runs statements on the raw pool and reports them the way
// the Bun query hooks do.
type observedRunner struct {
	db       *sql.DB
	slowTime time.Duration
	logger   Logger
}

func (r *observedRunner) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.observe(query, start, err)
	return rows, err
}

func (r *observedRunner) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, query, args...)
	r.observe(query, start, err)
	return res, err
}

func (r *observedRunner) observe(query string, start time.Time, err error) {
	duration := time.Since(start)
	recordQuery(FirstKeyword(query), duration, err)
	warnSlowQuery(r.logger, r.slowTime, query, duration, err)
}

// Ping issues the liveness probe, connecting first if needed.
func (p *Pool) Ping(ctx context.Context) error {
	if _, err := p.DB(ctx); err != nil {
		return err
	}
	return p.manager.Ping(ctx)
}

// Health probes the database and reports pool statistics.
func (p *Pool) Health(ctx context.Context) *HealthStatus {
	var status *HealthStatus
	if _, err := p.DB(ctx); err != nil {
		status = &HealthStatus{
			LastError:     err.Error(),
			LastCheckTime: time.Now(),
		}
	} else {
		status = p.manager.HealthCheck(ctx)
	}

	stats := p.Stats()
	status.OpenConns = stats.OpenConns
	status.WaitCount = stats.WaitCount
	if status.MaxOpenConns == 0 {
		status.MaxOpenConns = p.config.MaxOpenConns
	}
	return status
}

// Stats reports the connection pool counters.
func (p *Pool) Stats() *DBStats {
	return p.manager.GetStats()
}

// Dialect returns the configured database type.
func (p *Pool) Dialect() string {
	return p.config.Type
}

// Close releases every pooled connection. Closing a pool that never
// connected is a no-op.
func (p *Pool) Close() error {
	return p.manager.Disconnect()
}

func dialectOf(db *bun.DB) dialect.Name {
	return db.Dialect().Name()
}
