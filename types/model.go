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

package types

// Model is satisfied by the pointer type of an entity that exposes its
// primary key. The zero value of PK means the key is absent.
type Model[T any, PK comparable] interface {
	*T
	GetPk() PK
}

// Pageable is implemented by entities that can carry a page request,
// usually by embedding PageParam.
type Pageable interface {
	GetPage() int
	GetPageSize() int
}
