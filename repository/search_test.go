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

package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/vbforumquery/database/databasetest"
	"github.com/tomoncle/vbforumquery/repository"
	"github.com/tomoncle/vbforumquery/types"
)

var (
	excluded    = []int64{197, 196, 192, 149, 150}
	searchLimit = types.PageLimits{DefaultLimit: 20, MaxLimit: 100}
)

func postIDs(posts []*repository.Post) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.PostID)
	}
	return ids
}

func TestSearchPosts(t *testing.T) {
	repo := repository.NewPostRepository(databasetest.NewForumPool(t), excluded)
	ctx := context.Background()

	tests := []struct {
		name    string
		keyword string
		want    []int64
	}{
		{"matches text, subject and topic title newest first", "dragon", []int64{102, 101, 100}},
		{"case insensitive", "DrAgOn", []int64{102, 101, 100}},
		{"subject only", "re: frostfang", []int64{106}},
		{"no match", "unicorn", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.SearchPosts(ctx, tt.keyword, types.NewPageRequest(0, 0, searchLimit))
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(page.Items))
		})
	}
}

func TestSearchPostsFillsJoinedColumns(t *testing.T) {
	repo := repository.NewPostRepository(databasetest.NewForumPool(t), excluded)

	page, err := repo.SearchPosts(context.Background(), "north path", types.NewPageRequest(0, 0, searchLimit))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	post := page.Items[0]
	assert.Equal(t, int64(106), post.PostID)
	assert.Equal(t, int64(11), post.TopicID)
	assert.Equal(t, int64(3), post.ForumID)
	assert.Equal(t, "Frostfang boss strategy", post.TopicTitle)
	assert.Equal(t, "Frostfang Pass", post.ForumName)
	assert.Equal(t, int64(7000), post.PostTime)
	assert.Empty(t, post.URL)
}

func TestSearchPostsPaging(t *testing.T) {
	repo := repository.NewPostRepository(databasetest.NewForumPool(t), excluded)
	ctx := context.Background()

	page, err := repo.SearchPosts(ctx, "dragon", types.NewPageRequest(2, 0, searchLimit))
	require.NoError(t, err)
	assert.Equal(t, []int64{102, 101}, postIDs(page.Items))
	assert.Equal(t, types.PageMeta{Limit: 2, Offset: 0, PostCount: 2}, page.Meta())

	page, err = repo.SearchPosts(ctx, "dragon", types.NewPageRequest(2, 2, searchLimit))
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, postIDs(page.Items))

	page, err = repo.SearchPosts(ctx, "dragon", types.NewPageRequest(2, 10, searchLimit))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestSearchPostsHonoursExclusions(t *testing.T) {
	pool := databasetest.NewForumPool(t)
	ctx := context.Background()

	withoutExclusions := repository.NewPostRepository(pool, nil)
	page, err := withoutExclusions.SearchPosts(ctx, "dragon", types.NewPageRequest(0, 0, searchLimit))
	require.NoError(t, err)
	assert.Equal(t, []int64{104, 102, 101, 100}, postIDs(page.Items))

	withExclusions := repository.NewPostRepository(pool, []int64{databasetest.ExcludedForumID})
	page, err = withExclusions.SearchPosts(ctx, "dragon", types.NewPageRequest(0, 0, searchLimit))
	require.NoError(t, err)
	assert.NotContains(t, postIDs(page.Items), int64(104))
}

func TestSearchZone(t *testing.T) {
	repo := repository.NewPostRepository(databasetest.NewForumPool(t), excluded)
	ctx := context.Background()
	limits := types.PageLimits{DefaultLimit: 200, MaxLimit: 200}

	tests := []struct {
		name string
		zone string
		want []int64
	}{
		{"forum name", "frostfang", []int64{106, 102}},
		{"parent forum name", "zones", []int64{106, 102}},
		{"excluded forum is skipped", "staff", []int64{}},
		{"other forum", "caverns", []int64{105}},
		{"no match", "atlantis", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.SearchZone(ctx, tt.zone, types.NewPageRequest(0, 0, limits))
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(page.Items))
			assert.Equal(t, 200, page.Limit)
		})
	}
}

type failingProvider struct{}

func (failingProvider) DB(context.Context) (*bun.DB, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestSearchConnectFailure(t *testing.T) {
	repo := repository.NewPostRepository(failingProvider{}, excluded)

	_, err := repo.SearchPosts(context.Background(), "dragon", types.NewPageRequest(0, 0, searchLimit))
	assert.EqualError(t, err, "dial tcp: connection refused")

	_, err = repo.SearchZone(context.Background(), "zones", types.NewPageRequest(0, 0, searchLimit))
	assert.Error(t, err)
}
