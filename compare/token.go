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

import (
	"regexp"
	"strings"

	"github.com/quantpanel/qp-api/portfolio"
)

type TokenKind string

const (
	TokenTicker       TokenKind = "ticker"
	TokenISIN         TokenKind = "isin"
	TokenPortfolioRef TokenKind = "portfolio_ref"
)

// ClassifiedToken is an input token with its derived kind and normalized
// value; immutable once classified
type ClassifiedToken struct {
	Raw   string
	Kind  TokenKind
	Value string
}

var isinPattern = regexp.MustCompile(`^[A-Za-z]{2}[A-Za-z0-9]{10}$`)

// Classify tags a raw token as a ticker, ISIN or portfolio reference.
// Tokens containing '(', ')' or ',' are rejected outright: they are display
// labels leaking back in as identifiers and would otherwise surface as a
// confusing "not found" far downstream.
func Classify(token string, knownPortfolioIDs map[string]bool) (ClassifiedToken, error) {
	token = strings.TrimSpace(token)

	if token == "" {
		return ClassifiedToken{}, &InputError{
			Kind:  MalformedToken,
			Token: token,
			Msg:   "token is empty",
		}
	}

	if strings.ContainsAny(token, "(),") {
		return ClassifiedToken{}, &InputError{
			Kind:  MalformedToken,
			Token: token,
			Msg:   "contains label punctuation; pass the identifier, not the display name",
		}
	}

	if knownPortfolioIDs[token] {
		return ClassifiedToken{
			Raw:   token,
			Kind:  TokenPortfolioRef,
			Value: portfolio.CanonicalID(token),
		}, nil
	}

	if isinPattern.MatchString(token) {
		return ClassifiedToken{
			Raw:   token,
			Kind:  TokenISIN,
			Value: strings.ToUpper(token),
		}, nil
	}

	return ClassifiedToken{
		Raw:   token,
		Kind:  TokenTicker,
		Value: strings.ToUpper(token),
	}, nil
}

// ClassifyAll classifies every token, failing fast on the first malformed one
func ClassifyAll(tokens []string, knownPortfolioIDs map[string]bool) ([]ClassifiedToken, error) {
	classified := make([]ClassifiedToken, 0, len(tokens))
	for _, token := range tokens {
		ct, err := Classify(token, knownPortfolioIDs)
		if err != nil {
			return nil, err
		}
		classified = append(classified, ct)
	}
	return classified, nil
}
