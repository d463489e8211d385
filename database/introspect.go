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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/vbforumquery/types"
)

// ListTables returns one row per table of the current database or schema.
func (p *Pool) ListTables(ctx context.Context) ([]*types.Row, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, err
	}

	switch dialectOf(db) {
	case dialect.MySQL:
		return queryRows(ctx, db, "SHOW TABLES")
	case dialect.PG:
		return queryRows(ctx, db, `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`)
	default:
		return queryRows(ctx, db, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	}
}

// DescribeTable returns the column metadata of table. The name is quoted as
// a single identifier, so "a.b" names a table called "a.b" in the current
// database rather than table b of schema a. A missing table surfaces the
// database's own error.
func (p *Pool) DescribeTable(ctx context.Context, table string) ([]*types.Row, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, err
	}

	switch dialectOf(db) {
	case dialect.MySQL:
		return queryRows(ctx, db, "DESCRIBE ?", bun.Name(table))
	case dialect.PG:
		if err := probeTable(ctx, db, table); err != nil {
			return nil, err
		}
		return queryRows(ctx, db, `SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position`, table)
	default:
		// PRAGMA table_info answers an unknown table with zero rows.
		if err := probeTable(ctx, db, table); err != nil {
			return nil, err
		}
		return queryRows(ctx, db, "PRAGMA table_info(?)", bun.Name(table))
	}
}

func probeTable(ctx context.Context, db *bun.DB, table string) error {
	rows, err := db.QueryContext(ctx, "SELECT * FROM ? LIMIT 0", bun.Name(table))
	if err != nil {
		return err
	}
	return rows.Close()
}

func queryRows(ctx context.Context, db *bun.DB, query string, args ...interface{}) ([]*types.Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	_, result, err := scanRows(rows)
	return result, err
}
