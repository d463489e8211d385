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

	"github.com/uptrace/bun"

	"github.com/tomoncle/vbforumquery/types"
)

// DBProvider hands out the shared Bun handle, connecting on first use.
type DBProvider interface {
	DB(ctx context.Context) (*bun.DB, error)
}

// Post is one forum post joined with its topic title and forum name.
type Post struct {
	PostID      int64  `bun:"post_id" json:"post_id"`
	TopicID     int64  `bun:"topic_id" json:"topic_id"`
	ForumID     int64  `bun:"forum_id" json:"forum_id"`
	TopicTitle  string `bun:"topic_title" json:"topic_title"`
	ForumName   string `bun:"forum_name" json:"forum_name"`
	PostSubject string `bun:"post_subject" json:"post_subject"`
	PostText    string `bun:"post_text" json:"post_text"`
	PostTime    int64  `bun:"post_time" json:"post_time"`
	URL         string `bun:"-" json:"url"`
}

// PostRepository runs the fixed, parameterised forum searches. Both searches
// return only visible posts outside the excluded forums, newest first.
type PostRepository interface {
	// SearchPosts matches keyword case-insensitively against the post text,
	// the post subject and the topic title.
	SearchPosts(ctx context.Context, keyword string, page *types.PageRequest) (*types.Pagination[Post], error)

	// SearchZone matches zone against the forum name or the name of the
	// forum's parent.
	SearchZone(ctx context.Context, zone string, page *types.PageRequest) (*types.Pagination[Post], error)
}
