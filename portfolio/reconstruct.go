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

// Reconstruct turns a portfolio reference into a live portfolio entity using
// the given record set. Assets, weights and currency come from the record
// verbatim: no re-sorting, no weight renormalization. Reconstructing the
// same reference twice yields identical entities.
func Reconstruct(ref string, records map[string]*Record) (*Record, error) {
	id := CanonicalID(ref)

	rec, ok := records[id]
	if !ok {
		return nil, &ResolutionError{
			Kind: KindNotFound,
			Ref:  ref,
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec.Clone(), nil
}
