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
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/dynabase/utils"
)

type note struct {
	bun.BaseModel `bun:"table:notes"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Body string `bun:"body"`
}

type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) SetLevel(LogLevel) {}

func (l *captureLogger) Debug(msg string, _ ...interface{}) {}
func (l *captureLogger) Info(msg string, _ ...interface{})  {}
func (l *captureLogger) Error(msg string, _ ...interface{}) {}

func (l *captureLogger) Warn(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func connectSQLite(t *testing.T, cfg *ConnectionConfig) AbstractDatabaseManager {
	t.Helper()
	cfg.Type = "sqlite"
	cfg.DBName = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	manager := NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	_, err := manager.GetDB().NewCreateTable().Model((*note)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return manager
}

func TestManager_SQLiteLifecycle(t *testing.T) {
	ctx := context.Background()
	manager := connectSQLite(t, &ConnectionConfig{})

	require.NoError(t, manager.Ping(ctx))
	status := manager.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, manager.GetStats().MaxOpenConns)
	assert.NotNil(t, manager.GetSQLDB())

	require.NoError(t, manager.Disconnect())
	assert.Nil(t, manager.GetDB())
	assert.Error(t, manager.Ping(ctx))
	assert.False(t, manager.HealthCheck(ctx).Healthy)
	assert.Equal(t, &DBStats{}, manager.GetStats())
}

func TestManager_UnsupportedType(t *testing.T) {
	err := NewDatabaseManager(&ConnectionConfig{Type: "oracle"}).Connect(context.Background())
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	db := connectSQLite(t, &ConnectionConfig{}).GetDB()
	txm := NewTxManager(db, nil)

	err := txm.RunInTx(ctx, func(ctx context.Context) error {
		_, ok := TxFromContext(ctx)
		assert.True(t, ok)
		_, err := IDB(ctx, db).NewInsert().Model(&note{Body: "kept"}).Exec(ctx)
		return err
	})
	require.NoError(t, err)

	failure := errors.New("failure")
	err = txm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := IDB(ctx, db).NewInsert().Model(&note{Body: "dropped"}).Exec(ctx); err != nil {
			return err
		}
		return failure
	})
	assert.Same(t, failure, err)

	var bodies []string
	require.NoError(t, db.NewSelect().Model((*note)(nil)).Column("body").Scan(ctx, &bodies))
	assert.Equal(t, []string{"kept"}, bodies)
}

func TestTxManager_JoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()
	db := connectSQLite(t, &ConnectionConfig{}).GetDB()
	txm := NewTxManager(db, nil)

	outer := errors.New("outer")
	err := txm.RunInTx(ctx, func(ctx context.Context) error {
		outerTx, _ := TxFromContext(ctx)
		innerErr := txm.RunInTx(ctx, func(ctx context.Context) error {
			innerTx, ok := TxFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, outerTx, innerTx)
			_, err := IDB(ctx, db).NewInsert().Model(&note{Body: "inner"}).Exec(ctx)
			return err
		})
		require.NoError(t, innerErr)
		return outer
	})
	assert.Same(t, outer, err)

	n, err := db.NewSelect().Model((*note)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIDB_WithoutTransaction(t *testing.T) {
	db := connectSQLite(t, &ConnectionConfig{}).GetDB()
	assert.Equal(t, bun.IDB(db), IDB(context.Background(), db))
}

func TestSlowQueryHook(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	db := connectSQLite(t, &ConnectionConfig{}).GetDB()
	db.AddQueryHook(NewSlowQueryHook(time.Nanosecond, logger))

	_, err := db.NewSelect().Model((*note)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, logger.warns)
}

func TestQueryCounter(t *testing.T) {
	ctx := context.Background()
	db := connectSQLite(t, &ConnectionConfig{}).GetDB()
	counter := NewQueryCounter()
	db.AddQueryHook(counter)

	_, err := db.NewInsert().Model(&note{Body: "a"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewSelect().Model((*note)(nil)).Count(ctx)
	require.NoError(t, err)
	_, err = db.NewSelect().Model((*note)(nil)).Distinct().Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, counter.Operation("insert"))
	assert.Equal(t, 2, counter.Operation("SELECT"))
	assert.Equal(t, 2, counter.CountQueries())
	assert.Len(t, counter.Queries(), 3)

	counter.Reset()
	assert.Zero(t, counter.CountQueries())
	assert.Empty(t, counter.Queries())
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	utils.ConfigureOutput(&buf)
	t.Cleanup(func() { utils.ConfigureOutput(os.Stdout) })

	logger := NewDefaultLogger("DBTEST")
	logger.SetLevel(LogLevelWarn)
	logger.Info("hidden")
	logger.Warn("rolled back", "op", "Insert", "class", DuplicateKeyErr)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "rolled back")
	assert.Contains(t, out, "class=duplicate_key")
	assert.Contains(t, out, "op=Insert")
}

func TestInitLogger(t *testing.T) {
	previous := GetLogger()
	t.Cleanup(func() { InitLogger(previous) })

	custom := &captureLogger{}
	InitLogger(custom)
	assert.Same(t, custom, GetLogger())

	InitLogger(nil)
	assert.Same(t, custom, GetLogger())
}

func TestInitDB_GlobalLifecycle(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_NAME", "")
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.LogConfig = LogConfig{}
	cfg.ConnectionConfig.Type = "sqlite3"
	cfg.ConnectionConfig.DBName = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())
	assert.True(t, GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.Nil(t, GetDatabaseManager())
	assert.Equal(t, "Database not initialized", GetHealthStatus(ctx).LastError)
	assert.NoError(t, CloseDB())
}
