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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	n int
}

func rows(n int) []*row {
	out := make([]*row, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &row{n: i})
	}
	return out
}

func TestRequestConstructors(t *testing.T) {
	r := StartPage(3, 10, true)
	assert.Equal(t, 20, r.Offset)
	assert.Equal(t, 10, r.Limit)
	assert.True(t, r.Count)

	r = OffsetPage(0, 1, false)
	assert.Equal(t, 1, r.PageNum)
	assert.Equal(t, 1, r.PageSize)
	assert.NoError(t, r.Validate())

	r = OffsetPage(40, 20, false)
	assert.Equal(t, 3, r.PageNum)
}

func TestRequestValidate(t *testing.T) {
	var nilReq *Request
	for name, req := range map[string]*Request{
		"nil":       nilReq,
		"page zero": StartPage(0, 10, false),
		"size zero": StartPage(1, 0, false),
		"negative":  OffsetPage(-1, 10, false),
		"no limit":  OffsetPage(0, 0, false),
		"overflow":  StartPage(math.MaxInt/2, 4, false),
		"wraps":     StartPage(math.MaxInt, 2, false),
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
		})
	}
}

func TestPage_RejectsInvalidRequestWithoutCallingSupplier(t *testing.T) {
	called := false
	_, err := New[row]().Page(context.Background(), StartPage(0, 10, true), func(ctx context.Context) ([]*row, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.False(t, called)
}

func TestPage_UnclaimedScopeSlicesInMemory(t *testing.T) {
	supplier := func(ctx context.Context) ([]*row, error) { return rows(25), nil }

	page, err := New[row]().Page(context.Background(), StartPage(2, 10, false), supplier)
	require.NoError(t, err)
	require.Len(t, page.Items, 10)
	assert.Equal(t, 11, page.Items[0].n)
	assert.False(t, page.Counted)
	assert.Zero(t, page.Total)

	page, err = New[row]().Page(context.Background(), StartPage(3, 10, true), supplier)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Pages)

	page, err = New[row]().Page(context.Background(), StartPage(4, 10, true), supplier)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 25, page.Total)

	page, err = New[row]().Page(context.Background(), OffsetPage(2, math.MaxInt, false), supplier)
	require.NoError(t, err)
	require.Len(t, page.Items, 23)
	assert.Equal(t, 3, page.Items[0].n)
}

func TestPage_ClaimedScope(t *testing.T) {
	var seen *Scope
	page, err := New[row]().Page(context.Background(), StartPage(2, 5, true), func(ctx context.Context) ([]*row, error) {
		scope, ok := Claim(ctx)
		require.True(t, ok)
		seen = scope

		_, again := Claim(ctx)
		assert.False(t, again)

		scope.SetTotal(12)
		return rows(5), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen.Offset())
	assert.Equal(t, 5, seen.Limit())
	assert.True(t, seen.Count())
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.Pages)
}

func TestPage_SupplierErrorUnchanged(t *testing.T) {
	boom := errors.New("boom")
	_, err := New[row]().Page(context.Background(), StartPage(1, 1, false), func(ctx context.Context) ([]*row, error) {
		return nil, boom
	})
	assert.Same(t, boom, err)
}

func TestClaim_WithoutScope(t *testing.T) {
	_, ok := Claim(context.Background())
	assert.False(t, ok)
}
