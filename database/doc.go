// Package database provides connection management for MySQL, PostgreSQL and
// SQLite through Bun, YAML/environment configuration, context-scoped
// transactions, query hooks, SQL error classification and logging.
package database
