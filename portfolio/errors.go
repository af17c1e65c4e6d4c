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

package portfolio

import "fmt"

type ResolutionKind string

const (
	KindNotFound     ResolutionKind = "NOT_FOUND"
	KindInvalidState ResolutionKind = "INVALID_STATE"
)

// ResolutionError reports a portfolio reference that could not be turned
// into a live entity. Resolution errors abort the comparison; they are never
// retried automatically.
type ResolutionError struct {
	Kind ResolutionKind
	Ref  string
	Msg  string
}

func (e *ResolutionError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Ref, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Ref)
}

// IsNotFound reports whether err is a NOT_FOUND resolution error
func IsNotFound(err error) bool {
	if re, ok := err.(*ResolutionError); ok {
		return re.Kind == KindNotFound
	}
	return false
}
