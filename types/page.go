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

package types

import (
	"errors"
	"strconv"
	"strings"
)

// PageLimits holds the default and the maximum page size of one endpoint.
type PageLimits struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit" validate:"min=1"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit" validate:"gtefield=DefaultLimit"`
}

// PageRequest describes a limit/offset window over an ordered result.
type PageRequest struct {
	limit  int
	offset int
}

func (p *PageRequest) GetLimit() int {
	return p.limit
}

func (p *PageRequest) GetOffset() int {
	return p.offset
}

// NewPageRequest clamps limit and offset against limits. A non-positive
// limit falls back to the default, a limit above the cap is lowered to the
// cap and a negative offset becomes zero.
func NewPageRequest(limit int, offset int, limits PageLimits) *PageRequest {
	if limit < 1 {
		limit = limits.DefaultLimit
	}
	if limits.MaxLimit > 0 && limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return &PageRequest{limit: limit, offset: offset}
}

// ParsePageRequest builds a PageRequest from raw query-string values.
// Values that are not integers are treated as absent; integers too large
// for an int saturate and are then clamped like any other value.
func ParsePageRequest(limit string, offset string, limits PageLimits) *PageRequest {
	return NewPageRequest(atoiOrZero(limit), atoiOrZero(offset), limits)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return n
		}
		return 0
	}
	return n
}

// PageMeta is the pagination block returned next to a page of results.
type PageMeta struct {
	Limit     int `json:"limit"`
	Offset    int `json:"offset"`
	PostCount int `json:"post_count"`
}

// Pagination holds one page of items along with the window that produced it.
type Pagination[T any] struct {
	Limit  int
	Offset int
	Items  []*T
}

// NewPagination wraps items; a nil slice becomes an empty one so it
// serialises as [] rather than null.
func NewPagination[T any](page *PageRequest, items []*T) *Pagination[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &Pagination[T]{Limit: page.GetLimit(), Offset: page.GetOffset(), Items: items}
}

func (p *Pagination[T]) Meta() PageMeta {
	return PageMeta{Limit: p.Limit, Offset: p.Offset, PostCount: len(p.Items)}
}
