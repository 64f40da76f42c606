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

// Comparison operators understood by Criterion.
const (
	OpEqual          = "="
	OpNotEqual       = "<>"
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpIn             = "IN"
	OpNotIn          = "NOT IN"
	OpLike           = "LIKE"
	OpNotLike        = "NOT LIKE"
	OpIsNull         = "IS NULL"
	OpIsNotNull      = "IS NOT NULL"
	OpBetween        = "BETWEEN"
	OpRaw            = "RAW"
)

// Criterion is a single column condition. For OpRaw, Column holds the
// condition template and Values its arguments.
type Criterion struct {
	Column   string
	Operator string
	Values   []interface{}
}

// Criteria is a group of conditions joined with AND.
type Criteria struct {
	conditions []Criterion
}

func (c *Criteria) add(column, op string, values ...interface{}) *Criteria {
	c.conditions = append(c.conditions, Criterion{Column: column, Operator: op, Values: values})
	return c
}

func (c *Criteria) AndEqualTo(column string, value interface{}) *Criteria {
	return c.add(column, OpEqual, value)
}

func (c *Criteria) AndNotEqualTo(column string, value interface{}) *Criteria {
	return c.add(column, OpNotEqual, value)
}

func (c *Criteria) AndGreaterThan(column string, value interface{}) *Criteria {
	return c.add(column, OpGreater, value)
}

func (c *Criteria) AndGreaterThanOrEqualTo(column string, value interface{}) *Criteria {
	return c.add(column, OpGreaterOrEqual, value)
}

func (c *Criteria) AndLessThan(column string, value interface{}) *Criteria {
	return c.add(column, OpLess, value)
}

func (c *Criteria) AndLessThanOrEqualTo(column string, value interface{}) *Criteria {
	return c.add(column, OpLessOrEqual, value)
}

// AndIn expects values to be a slice.
func (c *Criteria) AndIn(column string, values interface{}) *Criteria {
	return c.add(column, OpIn, values)
}

func (c *Criteria) AndNotIn(column string, values interface{}) *Criteria {
	return c.add(column, OpNotIn, values)
}

func (c *Criteria) AndLike(column string, pattern string) *Criteria {
	return c.add(column, OpLike, pattern)
}

func (c *Criteria) AndNotLike(column string, pattern string) *Criteria {
	return c.add(column, OpNotLike, pattern)
}

func (c *Criteria) AndIsNull(column string) *Criteria {
	return c.add(column, OpIsNull)
}

func (c *Criteria) AndIsNotNull(column string) *Criteria {
	return c.add(column, OpIsNotNull)
}

func (c *Criteria) AndBetween(column string, from, to interface{}) *Criteria {
	return c.add(column, OpBetween, from, to)
}

// AndCondition adds a raw condition such as "lower(name) = ?".
func (c *Criteria) AndCondition(condition string, args ...interface{}) *Criteria {
	return c.add(condition, OpRaw, args...)
}

// Conditions returns a copy of the group's conditions in insertion order.
func (c *Criteria) Conditions() []Criterion {
	out := make([]Criterion, len(c.conditions))
	copy(out, c.conditions)
	return out
}

func (c *Criteria) IsValid() bool {
	return len(c.conditions) > 0
}

// OrderClause orders a result set by one column.
type OrderClause struct {
	Column string
	Desc   bool
}

// Example is a dynamic filter: each Criteria group is an AND of its
// conditions and the groups are joined with OR. It is built by the caller
// and rendered only by the row accessor.
type Example struct {
	ored     []*Criteria
	orders   []OrderClause
	distinct bool
}

// NewExample returns an empty example that matches every row.
func NewExample() *Example {
	return &Example{}
}

// CreateCriteria returns the first criteria group, creating it if needed.
func (e *Example) CreateCriteria() *Criteria {
	if len(e.ored) == 0 {
		return e.Or()
	}
	return e.ored[0]
}

// Or starts a new criteria group OR-ed with the existing ones.
func (e *Example) Or() *Criteria {
	c := &Criteria{}
	e.ored = append(e.ored, c)
	return c
}

func (e *Example) OrderBy(column string) *Example {
	e.orders = append(e.orders, OrderClause{Column: column})
	return e
}

func (e *Example) OrderByDesc(column string) *Example {
	e.orders = append(e.orders, OrderClause{Column: column, Desc: true})
	return e
}

func (e *Example) Distinct() *Example {
	e.distinct = true
	return e
}

// Groups returns the non-empty criteria groups.
func (e *Example) Groups() []*Criteria {
	groups := make([]*Criteria, 0, len(e.ored))
	for _, c := range e.ored {
		if c.IsValid() {
			groups = append(groups, c)
		}
	}
	return groups
}

func (e *Example) Orders() []OrderClause {
	return e.orders
}

func (e *Example) IsDistinct() bool {
	return e.distinct
}

// IsEmpty reports whether the example has no usable condition.
func (e *Example) IsEmpty() bool {
	return len(e.Groups()) == 0
}

// Clear drops all groups, orders and the distinct flag.
func (e *Example) Clear() {
	e.ored = nil
	e.orders = nil
	e.distinct = false
}
