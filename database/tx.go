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

package database

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

type txContextKey struct{}

// TxFromContext returns the transaction opened by a TxManager for ctx.
func TxFromContext(ctx context.Context) (bun.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(bun.Tx)
	return tx, ok
}

// ContextWithTx attaches tx to ctx so repositories run their statements on it.
func ContextWithTx(ctx context.Context, tx bun.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// IDB returns the transaction carried by ctx, or db when there is none.
func IDB(ctx context.Context, db *bun.DB) bun.IDB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}

// TxManager runs a function inside a transaction boundary.
type TxManager interface {
	// RunInTx commits when fn returns nil and rolls back when fn returns an
	// error or panics. The error of fn is returned unchanged.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type bunTxManager struct {
	db   *bun.DB
	opts *sql.TxOptions
}

// NewTxManager returns a TxManager beginning transactions on db. A call made
// with a context that already carries a transaction joins it.
func NewTxManager(db *bun.DB, opts *sql.TxOptions) TxManager {
	return &bunTxManager{db: db, opts: opts}
}

func (m *bunTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return m.db.RunInTx(ctx, m.opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}
