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

	"github.com/tomoncle/dynabase/types"
)

// WriteRepository persists, changes and removes entities. Every method
// returns the number of affected rows.
type WriteRepository[T any, PK comparable] interface {
	// Insert writes every mapped column of record.
	Insert(ctx context.Context, record *T) (int64, error)

	// InsertSelective writes only the columns holding a non-zero value.
	InsertSelective(ctx context.Context, record *T) (int64, error)

	InsertBatch(ctx context.Context, records []*T) (int64, error)

	// UpdateByPk overwrites every non-key column of the row with record's key.
	UpdateByPk(ctx context.Context, record *T) (int64, error)

	// UpdateSelectiveByPk overwrites only the non-zero columns of record.
	UpdateSelectiveByPk(ctx context.Context, record *T) (int64, error)

	UpdateByExample(ctx context.Context, record *T, example *types.Example) (int64, error)

	UpdateSelectiveByExample(ctx context.Context, record *T, example *types.Example) (int64, error)

	DeleteByPk(ctx context.Context, pk PK) (int64, error)

	// DeleteByIds removes the rows whose keys are listed in the comma
	// separated token ids.
	DeleteByIds(ctx context.Context, ids string) (int64, error)

	// Delete removes the rows equal to record on its non-zero columns.
	Delete(ctx context.Context, record *T) (int64, error)

	DeleteByExample(ctx context.Context, example *types.Example) (int64, error)
}

// ReadRepository queries entities. Page-aware implementations honor the
// paging scope installed in ctx by a pager.Pager.
type ReadRepository[T any, PK comparable] interface {
	// SelectByPk returns nil without error when no row has the key.
	SelectByPk(ctx context.Context, pk PK) (*T, error)

	SelectByIds(ctx context.Context, ids string) ([]*T, error)

	// Select returns the rows equal to record on its non-zero columns.
	Select(ctx context.Context, record *T) ([]*T, error)

	SelectAll(ctx context.Context) ([]*T, error)

	SelectByExample(ctx context.Context, example *types.Example) ([]*T, error)

	// SelectOne returns the first matching row in storage order, or nil.
	SelectOne(ctx context.Context, record *T) (*T, error)

	SelectOneByExample(ctx context.Context, example *types.Example) (*T, error)

	SelectCount(ctx context.Context, record *T) (int64, error)

	SelectCountByExample(ctx context.Context, example *types.Example) (int64, error)
}

// Accessor is the row-level storage contract the service delegates to.
type Accessor[T any, PK comparable] interface {
	WriteRepository[T, PK]
	ReadRepository[T, PK]
}
