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
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/dynabase/types"
)

// whereExample renders the criteria groups of example as an OR of AND
// groups. An example without criteria matches every row.
func whereExample(qb bun.QueryBuilder, example *types.Example) bun.QueryBuilder {
	groups := example.Groups()
	if len(groups) == 0 {
		return qb.Where("1 = 1")
	}
	return qb.WhereGroup(" AND ", func(qb bun.QueryBuilder) bun.QueryBuilder {
		for _, group := range groups {
			conditions := group.Conditions()
			qb = qb.WhereGroup(" OR ", func(qb bun.QueryBuilder) bun.QueryBuilder {
				for _, c := range conditions {
					qb = whereCriterion(qb, c)
				}
				return qb
			})
		}
		return qb
	})
}

func whereCriterion(qb bun.QueryBuilder, c types.Criterion) bun.QueryBuilder {
	column := bun.Ident(c.Column)
	switch c.Operator {
	case types.OpIsNull, types.OpIsNotNull:
		return qb.Where("? "+c.Operator, column)
	case types.OpBetween:
		return qb.Where("? BETWEEN ? AND ?", column, c.Values[0], c.Values[1])
	case types.OpIn:
		if isEmptyList(c.Values[0]) {
			return qb.Where("1 = 0")
		}
		return qb.Where("? IN (?)", column, bun.In(c.Values[0]))
	case types.OpNotIn:
		if isEmptyList(c.Values[0]) {
			return qb
		}
		return qb.Where("? NOT IN (?)", column, bun.In(c.Values[0]))
	case types.OpRaw:
		return qb.Where(c.Column, c.Values...)
	default:
		return qb.Where("? "+c.Operator+" ?", column, c.Values[0])
	}
}

// selectExample applies the filter, ordering and DISTINCT flag of example.
func selectExample(q *bun.SelectQuery, example *types.Example) *bun.SelectQuery {
	q = whereExample(q.QueryBuilder(), example).Unwrap().(*bun.SelectQuery)
	if example.IsDistinct() {
		q = q.Distinct()
	}
	for _, o := range example.Orders() {
		if o.Desc {
			q = q.OrderExpr("? DESC", bun.Ident(o.Column))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(o.Column))
		}
	}
	return q
}

func isEmptyList(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// decodeKeys splits a comma separated key token and converts each element
// to the kind of the primary key column. Blank elements are skipped.
func decodeKeys(typ reflect.Type, ids string) ([]interface{}, error) {
	parts := strings.Split(ids, ",")
	keys := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := parseKey(typ, part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseKey(typ reflect.Type, s string) (interface{}, error) {
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		return v, nil
	default:
		return s, nil
	}
}
