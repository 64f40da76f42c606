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

import "math"

// PageParam carries the requested page number and page size of an entity
// used as a page-based query template. Embed it in a model with `bun:"-"`
// so the fields never reach a table column.
type PageParam struct {
	Page     int `bun:"-" json:"page,omitempty" yaml:"page,omitempty"`
	PageSize int `bun:"-" json:"page_size,omitempty" yaml:"page_size,omitempty"`
}

// GetPage returns the 1-based page number, or 0 when it was not set.
func (p *PageParam) GetPage() int {
	if p.Page < 1 {
		return 0
	}
	return p.Page
}

// GetPageSize returns the page size, or 0 when it was not set.
func (p *PageParam) GetPageSize() int {
	if p.PageSize < 1 {
		return 0
	}
	return p.PageSize
}

// GetOffset returns the number of rows skipped before the requested page.
// It is 0 when either field is unset, and math.MaxInt when the offset does
// not fit in an int.
func (p *PageParam) GetOffset() int {
	if p.GetPage() == 0 || p.GetPageSize() == 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// SetPage sets both page fields and returns the receiver.
func (p *PageParam) SetPage(page int, pageSize int) *PageParam {
	p.Page = page
	p.PageSize = pageSize
	return p
}

// Pagination holds paged result items along with pagination metadata.
// Total and Pages are zero unless the page was requested with counting.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Pages    int  `json:"pages"`
	Counted  bool `json:"-"`
	Items    []*T `json:"items"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, Items: make([]*T, 0)}
}

// SetTotal records the number of rows matching the filter and derives the
// page count from it.
func (p *Pagination[T]) SetTotal(total int) {
	p.Total = total
	p.Counted = true
	if p.PageSize > 0 {
		p.Pages = total / p.PageSize
		if total%p.PageSize != 0 {
			p.Pages++
		}
	}
}

// HasNext reports whether a counted pagination has pages after this one.
func (p *Pagination[T]) HasNext() bool {
	return p.Counted && p.Page < p.Pages
}

// First returns the first item of the page, or nil when the page is empty.
func (p *Pagination[T]) First() *T {
	if p == nil || len(p.Items) == 0 {
		return nil
	}
	return p.Items[0]
}
