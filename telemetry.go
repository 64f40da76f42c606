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
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomoncle/dynabase/database"
)

const instrumentationName = "github.com/tomoncle/dynabase"

// Option configures a Service.
type Option func(*telemetry)

// WithLogger sets the logger used for failed operations. Defaults to
// database.GetLogger().
func WithLogger(logger database.Logger) Option {
	return func(t *telemetry) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTracer sets the tracer used for operation spans. Defaults to the
// tracer of the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *telemetry) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

type telemetry struct {
	entity string
	logger database.Logger
	tracer trace.Tracer
}

func newTelemetry(entity string, opts []Option) *telemetry {
	t := &telemetry{
		entity: entity,
		logger: database.GetLogger(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *telemetry) reject(op string, err error) error {
	t.logger.Debug("precondition violated", "entity", t.entity, "op", op, "error", err)
	return err
}

// observe runs fn inside a span named after op and logs its failure.
func observe[R any](ctx context.Context, t *telemetry, op string, fn func(context.Context) (R, error)) (R, error) {
	ctx, span := t.tracer.Start(ctx, "dynabase."+op, trace.WithAttributes(
		attribute.String("dynabase.entity", t.entity),
	))
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrPrecondition) {
			t.logger.Debug("precondition violated", "entity", t.entity, "op", op, "error", err)
		} else {
			_, class := database.IsSqlError(err)
			t.logger.Warn("operation failed", "entity", t.entity, "op", op, "class", class.String(), "error", err)
		}
	}
	return result, err
}
