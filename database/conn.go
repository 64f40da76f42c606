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
	"fmt"
	"sync"

	"github.com/tomoncle/dynabase/utils"
	"github.com/uptrace/bun"
)

// global holds the process-wide database. factory is nil when the database
// was installed with SetDB.
var global struct {
	sync.RWMutex
	factory *BaseDatabaseFactory
	db      *bun.DB
}

// GetDB returns the process-wide database, or nil before InitDB or SetDB.
func GetDB() *bun.DB {
	global.RLock()
	defer global.RUnlock()
	return global.db
}

// SetDB installs an externally opened database. Passing nil clears it
// without closing anything.
func SetDB(db *bun.DB) {
	global.Lock()
	defer global.Unlock()
	global.factory, global.db = nil, db
}

// GetDatabaseManager returns the manager created by InitDB, if any.
func GetDatabaseManager() AbstractDatabaseManager {
	global.RLock()
	defer global.RUnlock()
	if global.factory == nil {
		return nil
	}
	return global.factory.GetManager()
}

func InitDB(cfg *Config) (*bun.DB, error) {
	return InitDBContext(context.Background(), cfg)
}

// InitDBContext applies the log settings of cfg, connects and installs the
// result as the process-wide database. A previous database is closed.
func InitDBContext(ctx context.Context, cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if level := cfg.LogConfig.Level; level != "" {
		utils.ConfigureLogLevel(level)
	}
	if format := cfg.LogConfig.ConsoleFormat; format != "" {
		utils.ConfigureConsoleLogFormat(format)
	}

	factory := NewDatabaseFactory()
	if _, err := factory.CreateFromConfig(&cfg.ConnectionConfig); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := CloseDB(); err != nil {
		GetLogger().Warn("Failed to close previous database", "error", err)
	}
	global.Lock()
	global.factory, global.db = factory, factory.GetDB()
	global.Unlock()
	return factory.GetDB(), nil
}

// CloseDB closes and clears the process-wide database.
func CloseDB() error {
	global.Lock()
	factory, db := global.factory, global.db
	global.factory, global.db = nil, nil
	global.Unlock()

	switch {
	case factory != nil:
		return factory.Close()
	case db != nil:
		return db.Close()
	}
	return nil
}

func GetHealthStatus(ctx context.Context) *HealthStatus {
	global.RLock()
	factory := global.factory
	global.RUnlock()
	if factory == nil {
		return &HealthStatus{LastError: "Database not initialized"}
	}
	return factory.GetHealthStatus(ctx)
}

func GetDatabaseStats() *DBStats {
	global.RLock()
	factory := global.factory
	global.RUnlock()
	if factory == nil {
		return &DBStats{}
	}
	return factory.GetStats()
}
