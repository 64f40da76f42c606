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
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/dynabase/database"
	"github.com/tomoncle/dynabase/pager"
	"github.com/tomoncle/dynabase/types"
)

// ErrCompositeKey is returned by key lookups on tables without exactly one
// primary key column.
var ErrCompositeKey = errors.New("table must have exactly one primary key column")

type bunAccessor[T any, PK comparable] struct {
	db    *bun.DB
	table *schema.Table
}

// NewAccessor returns an Accessor backed by the provided Bun DB. Statements
// run on the transaction carried by the context when there is one.
func NewAccessor[T any, PK comparable](db *bun.DB) Accessor[T, PK] {
	return &bunAccessor[T, PK]{
		db:    db,
		table: db.Table(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

func (r *bunAccessor[T, PK]) idb(ctx context.Context) bun.IDB {
	return database.IDB(ctx, r.db)
}

func (r *bunAccessor[T, PK]) Insert(ctx context.Context, record *T) (int64, error) {
	return affected(r.idb(ctx).NewInsert().Model(record).Exec(ctx))
}

func (r *bunAccessor[T, PK]) InsertSelective(ctx context.Context, record *T) (int64, error) {
	columns := r.nonZeroColumns(record, r.table.Fields)
	q := r.idb(ctx).NewInsert().Model(record)
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	return affected(q.Exec(ctx))
}

func (r *bunAccessor[T, PK]) InsertBatch(ctx context.Context, records []*T) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	return affected(r.idb(ctx).NewInsert().Model(&records).Exec(ctx))
}

func (r *bunAccessor[T, PK]) UpdateByPk(ctx context.Context, record *T) (int64, error) {
	return affected(r.idb(ctx).NewUpdate().Model(record).WherePK().Exec(ctx))
}

func (r *bunAccessor[T, PK]) UpdateSelectiveByPk(ctx context.Context, record *T) (int64, error) {
	columns := r.nonZeroColumns(record, r.table.DataFields)
	if len(columns) == 0 {
		return 0, nil
	}
	return affected(r.idb(ctx).NewUpdate().Model(record).Column(columns...).WherePK().Exec(ctx))
}

func (r *bunAccessor[T, PK]) UpdateByExample(ctx context.Context, record *T, example *types.Example) (int64, error) {
	q := r.idb(ctx).NewUpdate().Model(record)
	q = whereExample(q.QueryBuilder(), example).Unwrap().(*bun.UpdateQuery)
	return affected(q.Exec(ctx))
}

func (r *bunAccessor[T, PK]) UpdateSelectiveByExample(ctx context.Context, record *T, example *types.Example) (int64, error) {
	columns := r.nonZeroColumns(record, r.table.DataFields)
	if len(columns) == 0 {
		return 0, nil
	}
	q := r.idb(ctx).NewUpdate().Model(record).Column(columns...)
	q = whereExample(q.QueryBuilder(), example).Unwrap().(*bun.UpdateQuery)
	return affected(q.Exec(ctx))
}

func (r *bunAccessor[T, PK]) DeleteByPk(ctx context.Context, pk PK) (int64, error) {
	field, err := r.pkField()
	if err != nil {
		return 0, err
	}
	return affected(r.idb(ctx).NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(field.Name), pk).
		Exec(ctx))
}

func (r *bunAccessor[T, PK]) DeleteByIds(ctx context.Context, ids string) (int64, error) {
	field, keys, err := r.decodeIds(ids)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	return affected(r.idb(ctx).NewDelete().
		Model((*T)(nil)).
		Where("? IN (?)", bun.Ident(field.Name), bun.In(keys)).
		Exec(ctx))
}

func (r *bunAccessor[T, PK]) Delete(ctx context.Context, record *T) (int64, error) {
	q := r.idb(ctx).NewDelete().Model((*T)(nil))
	q = r.whereRecord(q.QueryBuilder(), record).Unwrap().(*bun.DeleteQuery)
	return affected(q.Exec(ctx))
}

func (r *bunAccessor[T, PK]) DeleteByExample(ctx context.Context, example *types.Example) (int64, error) {
	q := r.idb(ctx).NewDelete().Model((*T)(nil))
	q = whereExample(q.QueryBuilder(), example).Unwrap().(*bun.DeleteQuery)
	return affected(q.Exec(ctx))
}

func (r *bunAccessor[T, PK]) SelectByPk(ctx context.Context, pk PK) (*T, error) {
	field, err := r.pkField()
	if err != nil {
		return nil, err
	}
	return r.one(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(field.Name), pk)
	})
}

func (r *bunAccessor[T, PK]) SelectByIds(ctx context.Context, ids string) ([]*T, error) {
	field, keys, err := r.decodeIds(ids)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return make([]*T, 0), nil
	}
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? IN (?)", bun.Ident(field.Name), bun.In(keys))
	})
}

func (r *bunAccessor[T, PK]) Select(ctx context.Context, record *T) ([]*T, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return r.whereRecord(q.QueryBuilder(), record).Unwrap().(*bun.SelectQuery)
	})
}

func (r *bunAccessor[T, PK]) SelectAll(ctx context.Context) ([]*T, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (r *bunAccessor[T, PK]) SelectByExample(ctx context.Context, example *types.Example) ([]*T, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return selectExample(q, example)
	})
}

func (r *bunAccessor[T, PK]) SelectOne(ctx context.Context, record *T) (*T, error) {
	return r.one(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return r.whereRecord(q.QueryBuilder(), record).Unwrap().(*bun.SelectQuery)
	})
}

func (r *bunAccessor[T, PK]) SelectOneByExample(ctx context.Context, example *types.Example) (*T, error) {
	return r.one(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return selectExample(q, example)
	})
}

func (r *bunAccessor[T, PK]) SelectCount(ctx context.Context, record *T) (int64, error) {
	q := r.idb(ctx).NewSelect().Model((*T)(nil))
	q = r.whereRecord(q.QueryBuilder(), record).Unwrap().(*bun.SelectQuery)
	total, err := q.Count(ctx)
	return int64(total), err
}

func (r *bunAccessor[T, PK]) SelectCountByExample(ctx context.Context, example *types.Example) (int64, error) {
	q := selectExample(r.idb(ctx).NewSelect().Model((*T)(nil)), example)
	total, err := q.Count(ctx)
	return int64(total), err
}

// list runs a multi-row select. When ctx carries an unclaimed paging scope
// the select is counted first if requested, then windowed with OFFSET/LIMIT.
func (r *bunAccessor[T, PK]) list(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]*T, error) {
	rows := make([]*T, 0)
	q := apply(r.idb(ctx).NewSelect().Model(&rows))
	if scope, ok := pager.Claim(ctx); ok {
		if scope.Count() {
			total, err := q.Count(ctx)
			if err != nil {
				return nil, err
			}
			scope.SetTotal(total)
			if total == 0 || scope.Offset() >= total {
				return rows, nil
			}
		}
		q = q.Offset(scope.Offset()).Limit(scope.Limit())
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bunAccessor[T, PK]) one(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) (*T, error) {
	record := new(T)
	err := apply(r.idb(ctx).NewSelect().Model(record)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *bunAccessor[T, PK]) pkField() (*schema.Field, error) {
	if len(r.table.PKs) != 1 {
		return nil, fmt.Errorf("%w: %s has %d", ErrCompositeKey, r.table.Name, len(r.table.PKs))
	}
	return r.table.PKs[0], nil
}

func (r *bunAccessor[T, PK]) decodeIds(ids string) (*schema.Field, []interface{}, error) {
	field, err := r.pkField()
	if err != nil {
		return nil, nil, err
	}
	keys, err := decodeKeys(field.IndirectType, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.%s: %w", r.table.Name, field.Name, err)
	}
	return field, keys, nil
}

// nonZeroColumns returns the names of fields holding a non-zero value in record.
func (r *bunAccessor[T, PK]) nonZeroColumns(record *T, fields []*schema.Field) []string {
	strct := reflect.ValueOf(record).Elem()
	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.HasZeroValue(strct) {
			columns = append(columns, f.Name)
		}
	}
	return columns
}

// whereRecord filters by equality on every non-zero column of record. A
// record without values matches every row.
func (r *bunAccessor[T, PK]) whereRecord(qb bun.QueryBuilder, record *T) bun.QueryBuilder {
	strct := reflect.ValueOf(record).Elem()
	matched := false
	for _, f := range r.table.Fields {
		if f.HasZeroValue(strct) {
			continue
		}
		qb = qb.Where("? = ?", bun.Ident(f.Name), f.Value(strct).Interface())
		matched = true
	}
	if !matched {
		qb = qb.Where("1 = 1")
	}
	return qb
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
