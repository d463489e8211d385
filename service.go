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

package vbforumquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomoncle/vbforumquery/config"
	"github.com/tomoncle/vbforumquery/database"
	"github.com/tomoncle/vbforumquery/repository"
	"github.com/tomoncle/vbforumquery/types"
)

const Version = "1.0.0"

const (
	msgSQLRequired   = "SQL query is required"
	msgSearchQuery   = `Search query "q" is required`
	msgZoneQuery     = `Forum name search query "q" is required`
	msgTableRequired = "Table name is required"
)

// Service is the query gateway behind the HTTP routes.
type Service interface {
	// Execute runs one caller-supplied statement with bound parameters.
	Execute(ctx context.Context, sql string, params []interface{}) (*database.Result, error)

	// ListTables lists the tables of the connected database.
	ListTables(ctx context.Context) ([]*types.Row, error)

	// DescribeTable returns the column metadata of one table.
	DescribeTable(ctx context.Context, table string) ([]*types.Row, error)

	// SearchPosts runs the keyword search over post text, subject and topic title.
	SearchPosts(ctx context.Context, keyword string, page *types.PageRequest) (*types.Pagination[repository.Post], error)

	// SearchZone runs the forum-name search.
	SearchZone(ctx context.Context, zone string, page *types.PageRequest) (*types.Pagination[repository.Post], error)

	// Health probes the database.
	Health(ctx context.Context) *database.HealthStatus

	// Close releases the connection pool.
	Close() error
}

type serviceImpl struct {
	pool     *database.Pool
	posts    repository.PostRepository
	settings *config.SearchSettings
}

// NewService builds the gateway over pool. A nil settings selects the
// defaults.
func NewService(pool *database.Pool, settings *config.SearchSettings) Service {
	if settings == nil {
		settings = config.DefaultSearchSettings()
	}
	return &serviceImpl{
		pool:     pool,
		posts:    repository.NewPostRepository(pool, settings.ExcludedForums),
		settings: settings,
	}
}

func (s *serviceImpl) Execute(ctx context.Context, sql string, params []interface{}) (*database.Result, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, types.NewError(types.ErrBadRequest, msgSQLRequired)
	}
	res, err := s.pool.Execute(ctx, sql, params)
	if err != nil {
		return nil, types.WrapError(types.ErrExecutionFailure, err)
	}
	return res, nil
}

func (s *serviceImpl) ListTables(ctx context.Context) ([]*types.Row, error) {
	rows, err := s.pool.ListTables(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrExecutionFailure, err)
	}
	return rows, nil
}

func (s *serviceImpl) DescribeTable(ctx context.Context, table string) ([]*types.Row, error) {
	if strings.TrimSpace(table) == "" {
		return nil, types.NewError(types.ErrBadRequest, msgTableRequired)
	}
	rows, err := s.pool.DescribeTable(ctx, table)
	if err != nil {
		return nil, types.WrapError(types.ErrExecutionFailure, err)
	}
	return rows, nil
}

func (s *serviceImpl) SearchPosts(ctx context.Context, keyword string, page *types.PageRequest) (*types.Pagination[repository.Post], error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, types.NewError(types.ErrBadRequest, msgSearchQuery)
	}
	if page == nil {
		page = types.NewPageRequest(0, 0, s.settings.Search)
	}
	result, err := s.posts.SearchPosts(ctx, keyword, page)
	if err != nil {
		return nil, types.WrapError(types.ErrExecutionFailure, err)
	}
	for _, post := range result.Items {
		post.URL = fmt.Sprintf("%s?t=%d&p=%d#p%d", s.settings.PermalinkBase, post.TopicID, post.PostID, post.PostID)
	}
	return result, nil
}

func (s *serviceImpl) SearchZone(ctx context.Context, zone string, page *types.PageRequest) (*types.Pagination[repository.Post], error) {
	if strings.TrimSpace(zone) == "" {
		return nil, types.NewError(types.ErrBadRequest, msgZoneQuery)
	}
	if page == nil {
		page = types.NewPageRequest(0, 0, s.settings.Zone)
	}
	result, err := s.posts.SearchZone(ctx, zone, page)
	if err != nil {
		return nil, types.WrapError(types.ErrExecutionFailure, err)
	}
	for _, post := range result.Items {
		post.URL = fmt.Sprintf("%s?t=%d", s.settings.PermalinkBase, post.TopicID)
	}
	return result, nil
}

func (s *serviceImpl) Health(ctx context.Context) *database.HealthStatus {
	return s.pool.Health(ctx)
}

func (s *serviceImpl) Close() error {
	return s.pool.Close()
}
