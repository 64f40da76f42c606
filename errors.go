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
	"errors"
	"fmt"
)

// ErrPrecondition matches every argument check failure raised by a Service
// before it reaches storage.
var ErrPrecondition = errors.New("precondition violated")

// ErrNotInitialized is returned by a service from NewDefaultService while
// no global database is installed.
var ErrNotInitialized = errors.New("dynabase: database not initialized")

// PreconditionError reports an invalid argument of a Service operation.
type PreconditionError struct {
	Op     string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("dynabase: %s: %s", e.Op, e.Reason)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, reason string) error {
	return &PreconditionError{Op: op, Reason: reason}
}
