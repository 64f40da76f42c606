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
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection_config:
  type: postgresql
  host: db.internal
  port: 5432
  dbname: orders
  slow_query_time: 250ms
  max_open_conns: 7
log_config:
  level: debug
  console_format: json
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, 7, cfg.ConnectionConfig.MaxOpenConns)
	assert.Equal(t, "debug", cfg.LogConfig.Level)
	assert.Equal(t, "json", cfg.LogConfig.ConsoleFormat)

	// unset keys keep their defaults
	assert.Equal(t, 10, cfg.ConnectionConfig.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnectionConfig.ConnMaxLifetime)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection_config: [oops"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "who")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	t.Setenv("DB_SLOW_QUERY_TIME", "1s")

	cfg := DefaultConnectionConfig()
	NewDatabaseFactory().overrideFromEnv(cfg)
	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "who", cfg.DBName)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, time.Second, cfg.SlowQueryTime)
}

func TestCreateFromConfig_UnsupportedType(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	_, err := NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")

	_, err = NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(""))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "data/app.db", sqliteDSN("data/app.db"))
	assert.Equal(t, "app.db", sqliteDSN("app"))
}

func TestOverrideFromEnv_InvalidNumberKeepsValue(t *testing.T) {
	t.Setenv("DB_PORT", "abc")
	logger := &captureLogger{}
	factory := NewDatabaseFactory()
	factory.SetLogger(logger)

	cfg := &ConnectionConfig{Port: 5432}
	factory.overrideFromEnv(cfg)
	assert.Equal(t, 5432, cfg.Port)
	assert.Len(t, logger.warns, 1)
}

func TestNormalizeType(t *testing.T) {
	for in, want := range map[string]string{
		"mysql":      "mysql",
		"PostgreSQL": "postgres",
		"pg":         "postgres",
		" sqlite3 ":  "sqlite",
	} {
		got, err := normalizeType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := normalizeType("")
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestMysqlDSN(t *testing.T) {
	cfg := &ConnectionConfig{
		Host: "db", Port: 3306, Username: "root", Password: "s3cret", DBName: "app",
		ConnectTimeout: 5 * time.Second,
	}
	mc, err := mysql.ParseDSN(mysqlDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "root", mc.User)
	assert.Equal(t, "s3cret", mc.Passwd)
	assert.Equal(t, "db:3306", mc.Addr)
	assert.Equal(t, "app", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.Equal(t, 5*time.Second, mc.Timeout)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &ConnectionConfig{
		Host: "db", Port: 5432, Username: "u", Password: "p@ss", DBName: "app",
		ConnectTimeout: 10 * time.Second,
	}
	u, err := url.Parse(postgresDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/app", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "10", u.Query().Get("connect_timeout"))
}
