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

package dynabase

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/dynabase/database"
	"github.com/tomoncle/dynabase/pager"
	"github.com/tomoncle/dynabase/repository"
	"github.com/tomoncle/dynabase/types"
)

// Service is the generic data-access facade for entity T keyed by PK.
//
// Every mutating operation runs in a transaction that commits on success and
// rolls back on failure. Invalid arguments fail with a *PreconditionError
// before storage is touched. Errors from storage are returned unchanged.
type Service[T any, PK comparable] interface {
	// Insert writes every column of record.
	Insert(ctx context.Context, record *T) (int64, error)

	// InsertSelective writes only the non-zero columns of record, leaving
	// the others to their storage defaults.
	InsertSelective(ctx context.Context, record *T) (int64, error)

	InsertBatch(ctx context.Context, records []*T) (int64, error)

	// UpdateByPk overwrites every column of the row with record's key.
	UpdateByPk(ctx context.Context, record *T) (int64, error)

	// UpdateSelectiveByPk overwrites only the non-zero columns of record.
	UpdateSelectiveByPk(ctx context.Context, record *T) (int64, error)

	UpdateByExample(ctx context.Context, record *T, example *types.Example) (int64, error)

	UpdateSelectiveByExample(ctx context.Context, record *T, example *types.Example) (int64, error)

	DeleteByPk(ctx context.Context, pk PK) (int64, error)

	// DeleteByPks removes the rows with the given keys. Zero keys are skipped.
	DeleteByPks(ctx context.Context, pks []PK) (int64, error)

	// Delete removes the rows equal to record on its non-zero columns.
	Delete(ctx context.Context, record *T) (int64, error)

	DeleteByExample(ctx context.Context, example *types.Example) (int64, error)

	// SelectByPk returns nil without error when no row has the key.
	SelectByPk(ctx context.Context, pk PK) (*T, error)

	// SelectByPks returns the rows with the given keys in storage order.
	SelectByPks(ctx context.Context, pks []PK) ([]*T, error)

	Select(ctx context.Context, record *T) ([]*T, error)

	SelectAll(ctx context.Context) ([]*T, error)

	SelectByExample(ctx context.Context, example *types.Example) ([]*T, error)

	// SelectOne returns the matching row, or nil. The caller expects at most
	// one match; with several the first in storage order is returned.
	SelectOne(ctx context.Context, record *T) (*T, error)

	SelectOneByExample(ctx context.Context, example *types.Example) (*T, error)

	// SelectLimitOne returns the first matching row without counting.
	SelectLimitOne(ctx context.Context, record *T) (*T, error)

	SelectLimitOneByExample(ctx context.Context, example *types.Example) (*T, error)

	SelectCount(ctx context.Context, record *T) (int64, error)

	SelectCountByExample(ctx context.Context, example *types.Example) (int64, error)

	// SelectPage returns the page described by record's page fields. *T
	// must implement types.Pageable.
	SelectPage(ctx context.Context, record *T) ([]*T, error)

	SelectPageByExample(ctx context.Context, example *types.Example, pageNum int, pageSize int) ([]*T, error)

	// SelectPageAndCount is SelectPage with the total row count.
	SelectPageAndCount(ctx context.Context, record *T) (*types.Pagination[T], error)

	SelectPageAndCountByExample(ctx context.Context, example *types.Example, pageNum int, pageSize int) (*types.Pagination[T], error)
}

// collaborators are the storage-facing parts a service delegates to.
type collaborators[T any, PK comparable] struct {
	accessor  repository.Accessor[T, PK]
	pager     pager.Pager[T]
	txManager database.TxManager
}

type baseServiceImpl[T any, PK comparable, PT types.Model[T, PK]] struct {
	tel *telemetry

	mu   sync.Mutex
	deps *collaborators[T, PK]
	bind func() (*collaborators[T, PK], error)
}

// NewService returns a Service storing T in db.
func NewService[T any, PK comparable, PT types.Model[T, PK]](db *bun.DB, opts ...Option) Service[T, PK] {
	return NewServiceWith[T, PK, PT](
		repository.NewAccessor[T, PK](db),
		pager.New[T](),
		database.NewTxManager(db, nil),
		opts...,
	)
}

// NewDefaultService returns a Service over the global database installed by
// database.InitDB or database.SetDB. Calls made before that fail with
// ErrNotInitialized; the first call that finds a database binds to it.
func NewDefaultService[T any, PK comparable, PT types.Model[T, PK]](opts ...Option) Service[T, PK] {
	s := newBaseServiceImpl[T, PK, PT](opts)
	s.bind = func() (*collaborators[T, PK], error) {
		db := database.GetDB()
		if db == nil {
			return nil, ErrNotInitialized
		}
		return &collaborators[T, PK]{
			accessor:  repository.NewAccessor[T, PK](db),
			pager:     pager.New[T](),
			txManager: database.NewTxManager(db, nil),
		}, nil
	}
	return s
}

// NewServiceWith returns a Service over explicit collaborators.
func NewServiceWith[T any, PK comparable, PT types.Model[T, PK]](
	accessor repository.Accessor[T, PK],
	p pager.Pager[T],
	txManager database.TxManager,
	opts ...Option,
) Service[T, PK] {
	s := newBaseServiceImpl[T, PK, PT](opts)
	s.deps = &collaborators[T, PK]{accessor: accessor, pager: p, txManager: txManager}
	return s
}

func newBaseServiceImpl[T any, PK comparable, PT types.Model[T, PK]](opts []Option) *baseServiceImpl[T, PK, PT] {
	entity := reflect.TypeOf((*T)(nil)).Elem().Name()
	return &baseServiceImpl[T, PK, PT]{tel: newTelemetry(entity, opts)}
}

// bound returns the collaborators, binding them on the first call that
// succeeds.
func (s *baseServiceImpl[T, PK, PT]) bound() (*collaborators[T, PK], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deps == nil {
		deps, err := s.bind()
		if err != nil {
			return nil, err
		}
		s.deps = deps
	}
	return s.deps, nil
}

// read runs fn against the accessor inside the span of op.
func read[R any, T any, PK comparable, PT types.Model[T, PK]](
	ctx context.Context,
	s *baseServiceImpl[T, PK, PT],
	op string,
	fn func(context.Context, repository.Accessor[T, PK]) (R, error),
) (R, error) {
	return observe(ctx, s.tel, op, func(ctx context.Context) (R, error) {
		deps, err := s.bound()
		if err != nil {
			var zero R
			return zero, err
		}
		return fn(ctx, deps.accessor)
	})
}

// mutate runs fn in a transaction boundary.
func (s *baseServiceImpl[T, PK, PT]) mutate(ctx context.Context, op string, fn func(context.Context, repository.Accessor[T, PK]) (int64, error)) (int64, error) {
	return observe(ctx, s.tel, op, func(ctx context.Context) (int64, error) {
		deps, err := s.bound()
		if err != nil {
			return 0, err
		}
		var n int64
		err = deps.txManager.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			n, err = fn(ctx, deps.accessor)
			return err
		})
		if err != nil {
			return 0, err
		}
		return n, nil
	})
}

func (s *baseServiceImpl[T, PK, PT]) Insert(ctx context.Context, record *T) (int64, error) {
	if record == nil {
		return 0, s.tel.reject("Insert", precondition("Insert", "record is nil"))
	}
	return s.mutate(ctx, "Insert", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.Insert(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) InsertSelective(ctx context.Context, record *T) (int64, error) {
	if record == nil {
		return 0, s.tel.reject("InsertSelective", precondition("InsertSelective", "record is nil"))
	}
	return s.mutate(ctx, "InsertSelective", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.InsertSelective(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) InsertBatch(ctx context.Context, records []*T) (int64, error) {
	if len(records) == 0 {
		return 0, s.tel.reject("InsertBatch", precondition("InsertBatch", "records are empty"))
	}
	if slices.Contains(records, nil) {
		return 0, s.tel.reject("InsertBatch", precondition("InsertBatch", "records contain nil"))
	}
	return s.mutate(ctx, "InsertBatch", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.InsertBatch(ctx, records)
	})
}

func (s *baseServiceImpl[T, PK, PT]) UpdateByPk(ctx context.Context, record *T) (int64, error) {
	if err := s.requireKey("UpdateByPk", record); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "UpdateByPk", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.UpdateByPk(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) UpdateSelectiveByPk(ctx context.Context, record *T) (int64, error) {
	if err := s.requireKey("UpdateSelectiveByPk", record); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "UpdateSelectiveByPk", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.UpdateSelectiveByPk(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) UpdateByExample(ctx context.Context, record *T, example *types.Example) (int64, error) {
	if err := s.requireRecordAndExample("UpdateByExample", record, example); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "UpdateByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.UpdateByExample(ctx, record, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) UpdateSelectiveByExample(ctx context.Context, record *T, example *types.Example) (int64, error) {
	if err := s.requireRecordAndExample("UpdateSelectiveByExample", record, example); err != nil {
		return 0, err
	}
	return s.mutate(ctx, "UpdateSelectiveByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.UpdateSelectiveByExample(ctx, record, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) DeleteByPk(ctx context.Context, pk PK) (int64, error) {
	var zero PK
	if pk == zero {
		return 0, s.tel.reject("DeleteByPk", precondition("DeleteByPk", "primary key is missing"))
	}
	return s.mutate(ctx, "DeleteByPk", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.DeleteByPk(ctx, pk)
	})
}

func (s *baseServiceImpl[T, PK, PT]) DeleteByPks(ctx context.Context, pks []PK) (int64, error) {
	if len(pks) == 0 {
		return 0, s.tel.reject("DeleteByPks", precondition("DeleteByPks", "primary keys are empty"))
	}
	ids := encodeKeys(pks)
	return s.mutate(ctx, "DeleteByPks", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.DeleteByIds(ctx, ids)
	})
}

func (s *baseServiceImpl[T, PK, PT]) Delete(ctx context.Context, record *T) (int64, error) {
	if record == nil {
		return 0, s.tel.reject("Delete", precondition("Delete", "record is nil"))
	}
	return s.mutate(ctx, "Delete", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.Delete(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) DeleteByExample(ctx context.Context, example *types.Example) (int64, error) {
	if example == nil {
		return 0, s.tel.reject("DeleteByExample", precondition("DeleteByExample", "example is nil"))
	}
	return s.mutate(ctx, "DeleteByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.DeleteByExample(ctx, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectByPk(ctx context.Context, pk PK) (*T, error) {
	var zero PK
	if pk == zero {
		return nil, s.tel.reject("SelectByPk", precondition("SelectByPk", "primary key is missing"))
	}
	return read(ctx, s, "SelectByPk", func(ctx context.Context, repo repository.Accessor[T, PK]) (*T, error) {
		return repo.SelectByPk(ctx, pk)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectByPks(ctx context.Context, pks []PK) ([]*T, error) {
	if len(pks) == 0 {
		return nil, s.tel.reject("SelectByPks", precondition("SelectByPks", "primary keys are empty"))
	}
	ids := encodeKeys(pks)
	return read(ctx, s, "SelectByPks", func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.SelectByIds(ctx, ids)
	})
}

func (s *baseServiceImpl[T, PK, PT]) Select(ctx context.Context, record *T) ([]*T, error) {
	if record == nil {
		return nil, s.tel.reject("Select", precondition("Select", "record is nil"))
	}
	return read(ctx, s, "Select", func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.Select(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectAll(ctx context.Context) ([]*T, error) {
	return read(ctx, s, "SelectAll", func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.SelectAll(ctx)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectByExample(ctx context.Context, example *types.Example) ([]*T, error) {
	if example == nil {
		return nil, s.tel.reject("SelectByExample", precondition("SelectByExample", "example is nil"))
	}
	return read(ctx, s, "SelectByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.SelectByExample(ctx, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectOne(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, s.tel.reject("SelectOne", precondition("SelectOne", "record is nil"))
	}
	return read(ctx, s, "SelectOne", func(ctx context.Context, repo repository.Accessor[T, PK]) (*T, error) {
		return repo.SelectOne(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectOneByExample(ctx context.Context, example *types.Example) (*T, error) {
	if example == nil {
		return nil, s.tel.reject("SelectOneByExample", precondition("SelectOneByExample", "example is nil"))
	}
	return read(ctx, s, "SelectOneByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) (*T, error) {
		return repo.SelectOneByExample(ctx, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectLimitOne(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, s.tel.reject("SelectLimitOne", precondition("SelectLimitOne", "record is nil"))
	}
	page, err := s.page(ctx, "SelectLimitOne", pager.OffsetPage(0, 1, false), func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.Select(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return page.First(), nil
}

func (s *baseServiceImpl[T, PK, PT]) SelectLimitOneByExample(ctx context.Context, example *types.Example) (*T, error) {
	if example == nil {
		return nil, s.tel.reject("SelectLimitOneByExample", precondition("SelectLimitOneByExample", "example is nil"))
	}
	page, err := s.page(ctx, "SelectLimitOneByExample", pager.OffsetPage(0, 1, false), func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.SelectByExample(ctx, example)
	})
	if err != nil {
		return nil, err
	}
	return page.First(), nil
}

func (s *baseServiceImpl[T, PK, PT]) SelectCount(ctx context.Context, record *T) (int64, error) {
	if record == nil {
		return 0, s.tel.reject("SelectCount", precondition("SelectCount", "record is nil"))
	}
	return read(ctx, s, "SelectCount", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.SelectCount(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectCountByExample(ctx context.Context, example *types.Example) (int64, error) {
	if example == nil {
		return 0, s.tel.reject("SelectCountByExample", precondition("SelectCountByExample", "example is nil"))
	}
	return read(ctx, s, "SelectCountByExample", func(ctx context.Context, repo repository.Accessor[T, PK]) (int64, error) {
		return repo.SelectCountByExample(ctx, example)
	})
}

func (s *baseServiceImpl[T, PK, PT]) SelectPage(ctx context.Context, record *T) ([]*T, error) {
	page, err := s.selectPage(ctx, "SelectPage", record, false)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *baseServiceImpl[T, PK, PT]) SelectPageAndCount(ctx context.Context, record *T) (*types.Pagination[T], error) {
	return s.selectPage(ctx, "SelectPageAndCount", record, true)
}

func (s *baseServiceImpl[T, PK, PT]) SelectPageByExample(ctx context.Context, example *types.Example, pageNum int, pageSize int) ([]*T, error) {
	page, err := s.selectPageByExample(ctx, "SelectPageByExample", example, pageNum, pageSize, false)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *baseServiceImpl[T, PK, PT]) SelectPageAndCountByExample(ctx context.Context, example *types.Example, pageNum int, pageSize int) (*types.Pagination[T], error) {
	return s.selectPageByExample(ctx, "SelectPageAndCountByExample", example, pageNum, pageSize, true)
}

func (s *baseServiceImpl[T, PK, PT]) selectPage(ctx context.Context, op string, record *T, count bool) (*types.Pagination[T], error) {
	if record == nil {
		return nil, s.tel.reject(op, precondition(op, "record is nil"))
	}
	pageable, ok := any(record).(types.Pageable)
	if !ok {
		return nil, s.tel.reject(op, precondition(op, fmt.Sprintf("%T does not carry page fields", record)))
	}
	if pageable.GetPage() <= 0 || pageable.GetPageSize() <= 0 {
		return nil, s.tel.reject(op, precondition(op, "page number and page size are required"))
	}
	req := pager.StartPage(pageable.GetPage(), pageable.GetPageSize(), count)
	return s.page(ctx, op, req, func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.Select(ctx, record)
	})
}

func (s *baseServiceImpl[T, PK, PT]) selectPageByExample(ctx context.Context, op string, example *types.Example, pageNum int, pageSize int, count bool) (*types.Pagination[T], error) {
	if example == nil {
		return nil, s.tel.reject(op, precondition(op, "example is nil"))
	}
	return s.page(ctx, op, pager.StartPage(pageNum, pageSize, count), func(ctx context.Context, repo repository.Accessor[T, PK]) ([]*T, error) {
		return repo.SelectByExample(ctx, example)
	})
}

// page validates req and runs fn under it.
func (s *baseServiceImpl[T, PK, PT]) page(ctx context.Context, op string, req *pager.Request, fn func(context.Context, repository.Accessor[T, PK]) ([]*T, error)) (*types.Pagination[T], error) {
	if err := req.Validate(); err != nil {
		return nil, s.tel.reject(op, &PreconditionError{Op: op, Reason: err.Error(), Err: err})
	}
	return observe(ctx, s.tel, op, func(ctx context.Context) (*types.Pagination[T], error) {
		deps, err := s.bound()
		if err != nil {
			return nil, err
		}
		return deps.pager.Page(ctx, req, func(ctx context.Context) ([]*T, error) {
			return fn(ctx, deps.accessor)
		})
	})
}

func (s *baseServiceImpl[T, PK, PT]) requireKey(op string, record *T) error {
	if record == nil {
		return s.tel.reject(op, precondition(op, "record is nil"))
	}
	var zero PK
	if PT(record).GetPk() == zero {
		return s.tel.reject(op, precondition(op, "primary key is missing"))
	}
	return nil
}

func (s *baseServiceImpl[T, PK, PT]) requireRecordAndExample(op string, record *T, example *types.Example) error {
	if record == nil {
		return s.tel.reject(op, precondition(op, "record is nil"))
	}
	if example == nil {
		return s.tel.reject(op, precondition(op, "example is nil"))
	}
	return nil
}

// encodeKeys joins the non-zero keys with commas, keeping their order.
func encodeKeys[PK comparable](pks []PK) string {
	var zero PK
	ids := make([]string, 0, len(pks))
	for _, pk := range pks {
		if pk == zero {
			continue
		}
		ids = append(ids, fmt.Sprint(pk))
	}
	return strings.Join(ids, ",")
}
