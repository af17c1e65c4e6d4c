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

package compare

import "fmt"

type InputKind string

const (
	MalformedToken      InputKind = "MALFORMED_TOKEN"
	UnknownSymbol       InputKind = "UNKNOWN_SYMBOL"
	TooFewSymbols       InputKind = "TOO_FEW_SYMBOLS"
	UnsupportedCurrency InputKind = "UNSUPPORTED_CURRENCY"
	InvalidPeriod       InputKind = "INVALID_PERIOD"
)

// InputError reports user input that cannot be turned into a comparison.
// Input errors abort the request with an actionable message.
type InputError struct {
	Kind  InputKind
	Token string
	Msg   string
}

func (e *InputError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %q %s", e.Kind, e.Token, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// IsInputError reports whether err is an InputError of the given kind
func IsInputError(err error, kind InputKind) bool {
	if ie, ok := err.(*InputError); ok {
		return ie.Kind == kind
	}
	return false
}
