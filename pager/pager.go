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

package pager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tomoncle/dynabase/types"
)

// ErrInvalidRequest is returned for page requests with out-of-range values.
var ErrInvalidRequest = errors.New("invalid page request")

// Request describes one page of a result set. PageNum and PageSize are
// derived from Offset and Limit (and vice versa) by the constructors.
type Request struct {
	PageNum  int
	PageSize int
	Offset   int
	Limit    int
	Count    bool
}

// StartPage requests the 1-based page pageNum of size pageSize.
func StartPage(pageNum int, pageSize int, count bool) *Request {
	r := &Request{PageNum: pageNum, PageSize: pageSize, Limit: pageSize, Count: count}
	if !offsetOverflows(pageNum, pageSize) {
		r.Offset = (pageNum - 1) * pageSize
	}
	return r
}

// offsetOverflows reports whether the offset of page pageNum of size
// pageSize does not fit in an int.
func offsetOverflows(pageNum int, pageSize int) bool {
	return pageNum > 1 && pageSize > 0 && pageNum-1 > math.MaxInt/pageSize
}

// OffsetPage requests limit rows after skipping offset rows.
func OffsetPage(offset int, limit int, count bool) *Request {
	r := &Request{Offset: offset, Limit: limit, PageSize: limit, Count: count}
	if limit > 0 {
		r.PageNum = offset/limit + 1
	}
	return r
}

// Validate checks the request bounds.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if r.PageNum < 1 {
		return fmt.Errorf("%w: page number %d must be at least 1", ErrInvalidRequest, r.PageNum)
	}
	if offsetOverflows(r.PageNum, r.PageSize) {
		return fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidRequest, r.PageNum, r.PageSize)
	}
	if r.Offset < 0 {
		return fmt.Errorf("%w: offset %d must not be negative", ErrInvalidRequest, r.Offset)
	}
	if r.Limit < 1 {
		return fmt.Errorf("%w: page size %d must be at least 1", ErrInvalidRequest, r.Limit)
	}
	return nil
}

// Scope is the paging constraint a page-aware supplier applies to its query.
type Scope struct {
	req     *Request
	claimed atomic.Bool
	total   int
	counted bool
}

func (s *Scope) Offset() int { return s.req.Offset }

func (s *Scope) Limit() int { return s.req.Limit }

// Count reports whether the supplier must also compute the total row count.
func (s *Scope) Count() bool { return s.req.Count }

// SetTotal records the total number of rows matching the supplier's filter.
func (s *Scope) SetTotal(total int) {
	s.total = total
	s.counted = true
}

type scopeKey struct{}

func withScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// Claim returns the pending paging scope of ctx. Only the first caller gets
// it, so statements issued after the paged one run unconstrained.
func Claim(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok || s == nil {
		return nil, false
	}
	if !s.claimed.CompareAndSwap(false, true) {
		return nil, false
	}
	return s, true
}

// Supplier runs the select deferred by a Pager.
type Supplier[T any] func(ctx context.Context) ([]*T, error)

// Pager executes a supplier under the paging constraints of a request.
type Pager[T any] interface {
	Page(ctx context.Context, req *Request, fn Supplier[T]) (*types.Pagination[T], error)
}

type defaultPager[T any] struct{}

// New returns the default context-scoped pager.
func New[T any]() Pager[T] {
	return defaultPager[T]{}
}

func (defaultPager[T]) Page(ctx context.Context, req *Request, fn Supplier[T]) (*types.Pagination[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	scope := &Scope{req: req}
	rows, err := fn(withScope(ctx, scope))
	if err != nil {
		return nil, err
	}

	pagination := types.NewDefaultPagination[T](req.PageNum, req.PageSize)
	if !scope.claimed.Load() {
		// The supplier ignored the scope and returned the full result.
		total := len(rows)
		rows = window(rows, req.Offset, req.Limit)
		if req.Count {
			pagination.SetTotal(total)
		}
	} else if req.Count && scope.counted {
		pagination.SetTotal(scope.total)
	}
	if rows != nil {
		pagination.Items = rows
	}
	return pagination, nil
}

func window[T any](rows []*T, offset int, limit int) []*T {
	if offset >= len(rows) {
		return make([]*T, 0)
	}
	end := len(rows)
	if limit < end-offset {
		end = offset + limit
	}
	return rows[offset:end]
}
