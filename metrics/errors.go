// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import "fmt"

// DataError reports that an entity's market data could not be obtained. It
// is localized to the entity: the row comes back with null cells and a
// warning, the rest of the panel still computes.
type DataError struct {
	Entity string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("no usable market data for %s: %v", e.Entity, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// ComputationError reports that a single metric could not be computed from
// otherwise valid data. Only the affected cell becomes null.
type ComputationError struct {
	Entity string
	Metric string
	Msg    string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("could not compute %s for %s: %s", e.Metric, e.Entity, e.Msg)
}
