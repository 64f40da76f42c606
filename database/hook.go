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
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.BgGreen, color.FgHiWhite),
	"INSERT": color.New(color.BgBlue, color.FgHiWhite),
	"UPDATE": color.New(color.BgYellow, color.FgHiWhite),
	"DELETE": color.New(color.BgMagenta, color.FgHiWhite),
}

func colorOperation(event *bun.QueryEvent) string {
	c, ok := operationColors[event.Operation()]
	if !ok {
		c = color.New(color.BgRed, color.FgHiWhite)
	}
	return c.Sprint(event.Query)
}

// SlowQueryHook reports statements that took longer than a threshold.
type SlowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook logs through logger, or the global logger when nil.
func NewSlowQueryHook(slowTime time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{slowTime: slowTime, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	logger := h.logger
	if logger == nil {
		logger = GetLogger()
	}
	logger.Warn("Database slow query detected:",
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.slowTime,
		"query", colorOperation(event),
	)
}

// QueryCounter is a query hook counting executed statements per operation.
// Count queries issued by pagination are tracked separately.
type QueryCounter struct {
	mu      sync.Mutex
	byOp    map[string]int
	counts  int
	queries []string
}

var _ bun.QueryHook = (*QueryCounter)(nil)

func NewQueryCounter() *QueryCounter {
	return &QueryCounter{byOp: make(map[string]int)}
}

func (h *QueryCounter) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryCounter) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byOp[event.Operation()]++
	if isCountQuery(event.Query) {
		h.counts++
	}
	h.queries = append(h.queries, event.Query)
}

func isCountQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "select count(*)") || strings.Contains(q, "select count(*) from _count_wrapper")
}

// Operation returns the number of statements of the given kind, e.g. "SELECT".
func (h *QueryCounter) Operation(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.byOp[strings.ToUpper(op)]
}

// CountQueries returns the number of "SELECT count(*)" statements.
func (h *QueryCounter) CountQueries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts
}

// Queries returns the executed statements in order.
func (h *QueryCounter) Queries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.queries))
	copy(out, h.queries)
	return out
}

func (h *QueryCounter) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byOp = make(map[string]int)
	h.counts = 0
	h.queries = nil
}
