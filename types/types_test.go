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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExample_Groups(t *testing.T) {
	ex := NewExample()
	assert.True(t, ex.IsEmpty())

	first := ex.CreateCriteria().AndEqualTo("name", "a").AndIn("id", []int{1, 2})
	assert.Same(t, first, ex.CreateCriteria())

	ex.Or()
	ex.Or().AndIsNull("email")

	groups := ex.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []Criterion{
		{Column: "name", Operator: OpEqual, Values: []interface{}{"a"}},
		{Column: "id", Operator: OpIn, Values: []interface{}{[]int{1, 2}}},
	}, groups[0].Conditions())
	assert.Equal(t, []Criterion{{Column: "email", Operator: OpIsNull}}, groups[1].Conditions())
	assert.False(t, ex.IsEmpty())
}

func TestExample_OrdersAndClear(t *testing.T) {
	ex := NewExample().OrderBy("id").OrderByDesc("created_at").Distinct()
	ex.CreateCriteria().AndBetween("age", 1, 9)

	assert.Equal(t, []OrderClause{{Column: "id"}, {Column: "created_at", Desc: true}}, ex.Orders())
	assert.True(t, ex.IsDistinct())

	ex.Clear()
	assert.True(t, ex.IsEmpty())
	assert.Empty(t, ex.Orders())
	assert.False(t, ex.IsDistinct())
}

func TestCriteria_ConditionsIsCopy(t *testing.T) {
	c := (&Criteria{}).AndCondition("lower(name) = ?", "x")
	conds := c.Conditions()
	conds[0].Column = "changed"
	assert.Equal(t, "lower(name) = ?", c.Conditions()[0].Column)
	assert.Equal(t, OpRaw, c.Conditions()[0].Operator)
}

func TestPageParam(t *testing.T) {
	var p PageParam
	assert.Zero(t, p.GetPage())
	assert.Zero(t, p.GetPageSize())
	assert.Zero(t, p.GetOffset())

	p.SetPage(3, 20)
	assert.Equal(t, 3, p.GetPage())
	assert.Equal(t, 20, p.GetPageSize())
	assert.Equal(t, 40, p.GetOffset())

	p.SetPage(math.MaxInt, 2)
	assert.Equal(t, math.MaxInt, p.GetOffset())

	p.SetPage(-1, 20)
	assert.Zero(t, p.GetPage())

	var pageable Pageable = &p
	assert.Equal(t, 20, pageable.GetPageSize())
}

func TestPagination(t *testing.T) {
	p := NewDefaultPagination[int](2, 10)
	assert.NotNil(t, p.Items)
	assert.Nil(t, p.First())
	assert.False(t, p.HasNext())

	p.SetTotal(25)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.Counted)
	assert.True(t, p.HasNext())

	p.SetTotal(30)
	assert.Equal(t, 3, p.Pages)

	wide := NewDefaultPagination[int](1, math.MaxInt)
	wide.SetTotal(5)
	assert.Equal(t, 1, wide.Pages)

	one := 1
	p.Items = []*int{&one}
	assert.Same(t, &one, p.First())

	var missing *Pagination[int]
	assert.Nil(t, missing.First())
}
