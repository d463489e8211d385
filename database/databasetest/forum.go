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

// Package databasetest provides an in-memory SQLite forum for tests.
package databasetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/vbforumquery/database"
)

// ExcludedForumID is a seeded forum whose posts must never appear in
// search results.
const ExcludedForumID = 149

var forumSchema = []string{
	`CREATE TABLE phpbb_forums (
		forum_id INTEGER PRIMARY KEY,
		parent_id INTEGER NOT NULL DEFAULT 0,
		forum_name TEXT NOT NULL
	)`,
	`CREATE TABLE phpbb_topics (
		topic_id INTEGER PRIMARY KEY,
		forum_id INTEGER NOT NULL,
		topic_title TEXT NOT NULL
	)`,
	`CREATE TABLE phpbb_posts (
		post_id INTEGER PRIMARY KEY,
		topic_id INTEGER NOT NULL,
		forum_id INTEGER NOT NULL,
		post_subject TEXT NOT NULL DEFAULT '',
		post_text TEXT NOT NULL,
		post_time INTEGER NOT NULL,
		post_visibility INTEGER NOT NULL DEFAULT 1
	)`,
}

var forumSeed = []string{
	`INSERT INTO phpbb_forums (forum_id, parent_id, forum_name) VALUES
		(1, 0, 'General Discussion'),
		(2, 0, 'Zones'),
		(3, 2, 'Frostfang Pass'),
		(4, 0, 'Trading Post'),
		(5, 0, 'Crystal Caverns'),
		(149, 0, 'Staff Zone')`,
	`INSERT INTO phpbb_topics (topic_id, forum_id, topic_title) VALUES
		(10, 1, 'Welcome dragon riders'),
		(11, 3, 'Frostfang boss strategy'),
		(12, 4, 'Selling scales'),
		(13, 149, 'Staff notes'),
		(14, 5, 'Caverns map')`,
	`INSERT INTO phpbb_posts (post_id, topic_id, forum_id, post_subject, post_text, post_time, post_visibility) VALUES
		(100, 10, 1, 'Welcome', 'Hello and welcome to the DRAGON guild', 1000, 1),
		(101, 10, 1, 'Re: Welcome', 'Thanks for having me', 2000, 1),
		(102, 11, 3, 'Frostfang boss', 'Bring fire resistance for the dragon', 3000, 1),
		(103, 12, 4, 'Selling', 'Dragon scale for sale', 4000, 0),
		(104, 13, 149, 'Notes', 'dragon staff notes', 5000, 1),
		(105, 14, 5, 'Map', 'Caverns map attached', 6000, 1),
		(106, 11, 3, 'Re: Frostfang boss', 'Use the north path', 7000, 1)`,
}

// Config returns a configuration for a private in-memory SQLite database.
// A single connection keeps the database alive for the pool's lifetime.
func Config() *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0
	cfg.ConnMaxIdleTime = 0
	return cfg
}

// NewPool opens an empty in-memory database that is closed when the test ends.
func NewPool(t testing.TB) *database.Pool {
	t.Helper()

	pool, err := database.NewPool(Config(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// NewForumPool opens an in-memory database holding a small seeded forum.
func NewForumPool(t testing.TB) *database.Pool {
	t.Helper()

	pool := NewPool(t)
	ctx := context.Background()
	for _, stmt := range append(append([]string{}, forumSchema...), forumSeed...) {
		_, err := pool.Execute(ctx, stmt, nil)
		require.NoError(t, err)
	}
	return pool
}
