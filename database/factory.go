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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tomoncle/dynabase/utils"
	"github.com/uptrace/bun"
)

// driverAliases maps every accepted type name to the name the manager
// switches on.
var driverAliases = map[string]string{
	"mysql":      "mysql",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pg":         "postgres",
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
}

// normalizeType returns the canonical driver name of typ.
func normalizeType(typ string) (string, error) {
	if name, ok := driverAliases[strings.ToLower(strings.TrimSpace(typ))]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unsupported database type: %s", typ)
}

type envOverride struct {
	key   string
	apply func(cfg *ConnectionConfig, value string) error
}

func intOverride(set func(cfg *ConnectionConfig, v int)) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		set(cfg, v)
		return nil
	}
}

var envOverrides = []envOverride{
	{"DB_TYPE", func(c *ConnectionConfig, v string) error { c.Type = v; return nil }},
	{"DB_HOST", func(c *ConnectionConfig, v string) error { c.Host = v; return nil }},
	{"DB_PORT", intOverride(func(c *ConnectionConfig, v int) { c.Port = v })},
	{"DB_USERNAME", func(c *ConnectionConfig, v string) error { c.Username = v; return nil }},
	{"DB_PASSWORD", func(c *ConnectionConfig, v string) error { c.Password = v; return nil }},
	{"DB_NAME", func(c *ConnectionConfig, v string) error { c.DBName = v; return nil }},
	{"DB_SSLMODE", func(c *ConnectionConfig, v string) error { c.SSLMode = v; return nil }},
	{"DB_MAX_IDLE_CONNS", intOverride(func(c *ConnectionConfig, v int) { c.MaxIdleConns = v })},
	{"DB_MAX_OPEN_CONNS", intOverride(func(c *ConnectionConfig, v int) { c.MaxOpenConns = v })},
	// seconds
	{"DB_CONN_MAX_LIFETIME", intOverride(func(c *ConnectionConfig, v int) {
		c.ConnMaxLifetime = time.Duration(v) * time.Second
	})},
}

// BaseDatabaseFactory builds the connection manager from configuration and
// exposes the lifecycle helpers used by the global database functions.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{logger: GetLogger()}
}

// CreateFromConfig applies environment overrides to cfg, checks the driver
// type and creates the manager. It does not connect.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	f.overrideFromEnv(cfg)

	typ, err := normalizeType(cfg.Type)
	if err != nil {
		return nil, err
	}
	cfg.Type = typ

	f.manager = NewDatabaseManager(cfg)
	f.manager.SetLogger(f.logger)
	return f.manager, nil
}

// overrideFromEnv lets DB_* variables win over file values. Malformed
// numbers are logged and ignored.
func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	for _, o := range envOverrides {
		value := os.Getenv(o.key)
		if value == "" {
			continue
		}
		if err := o.apply(cfg, value); err != nil {
			f.logger.Warn("Ignoring invalid environment override", "key", o.key, "error", err)
		}
	}
	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
	cfg.SlowQueryTime = utils.EnvDefaultDuration("DB_SLOW_QUERY_TIME", cfg.SlowQueryTime)
}

func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns nil until the manager is created and connected.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{LastError: "Database manager not initialized", LastCheckTime: time.Now()}
	}
	return f.manager.HealthCheck(ctx)
}

func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
