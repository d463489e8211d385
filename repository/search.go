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

package repository

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/vbforumquery/types"
)

const visiblePost = 1

type postRepositoryImpl struct {
	provider       DBProvider
	excludedForums []int64
}

// NewPostRepository returns a PostRepository that never returns posts from
// excludedForums.
func NewPostRepository(provider DBProvider, excludedForums []int64) PostRepository {
	excluded := make([]int64, len(excludedForums))
	copy(excluded, excludedForums)
	return &postRepositoryImpl{provider: provider, excludedForums: excluded}
}

func (r *postRepositoryImpl) SearchPosts(ctx context.Context, keyword string, page *types.PageRequest) (*types.Pagination[Post], error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}

	pattern := likePattern(keyword)
	query := r.newPostSelect(db).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(p.post_text) LIKE ?", pattern).
				WhereOr("LOWER(p.post_subject) LIKE ?", pattern).
				WhereOr("LOWER(t.topic_title) LIKE ?", pattern)
		})
	return r.page(ctx, query, page)
}

func (r *postRepositoryImpl) SearchZone(ctx context.Context, zone string, page *types.PageRequest) (*types.Pagination[Post], error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}

	pattern := likePattern(zone)
	parents := db.NewSelect().
		TableExpr("phpbb_forums").
		Column("forum_id").
		Where("LOWER(forum_name) LIKE ?", pattern)

	query := r.newPostSelect(db).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(f.forum_name) LIKE ?", pattern).
				WhereOr("f.parent_id IN (?)", parents)
		})
	return r.page(ctx, query, page)
}

func (r *postRepositoryImpl) newPostSelect(db *bun.DB) *bun.SelectQuery {
	query := db.NewSelect().
		TableExpr("phpbb_posts AS p").
		ColumnExpr("p.post_id, p.topic_id, p.forum_id").
		ColumnExpr("t.topic_title, f.forum_name").
		ColumnExpr("p.post_subject, p.post_text, p.post_time").
		Join("JOIN phpbb_topics AS t ON t.topic_id = p.topic_id").
		Join("JOIN phpbb_forums AS f ON f.forum_id = p.forum_id").
		Where("p.post_visibility = ?", visiblePost)
	if len(r.excludedForums) > 0 {
		query = query.Where("p.forum_id NOT IN (?)", bun.In(r.excludedForums))
	}
	return query
}

func (r *postRepositoryImpl) page(ctx context.Context, query *bun.SelectQuery, page *types.PageRequest) (*types.Pagination[Post], error) {
	posts := make([]*Post, 0)
	err := query.
		OrderExpr("p.post_time DESC, p.post_id DESC").
		Limit(page.GetLimit()).
		Offset(page.GetOffset()).
		Scan(ctx, &posts)
	if err != nil {
		return nil, err
	}
	return types.NewPagination(page, posts), nil
}

func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}
