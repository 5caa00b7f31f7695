// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package normalize

// Quality records every adjustment the normalizer made to a record. Each
// entry names the affected field. A record with no entries passed through
// untouched.
type Quality struct {
	// Clamped lists numeric fields forced back into range.
	Clamped []string
	// Rescaled lists fields whose values were proportionally rescaled.
	Rescaled []string
	// Unmapped lists category or region values absent from the vocabulary.
	Unmapped []string
	// Invalid lists fields whose raw values could not be parsed and were dropped.
	Invalid []string
}

// Decrements is the number of quality penalties the record accrued. Unmapped
// vocabulary values are informational and do not count.
func (q Quality) Decrements() int {
	return len(q.Clamped) + len(q.Rescaled) + len(q.Invalid)
}

// Clean reports whether the record needed no corrective adjustment.
func (q Quality) Clean() bool {
	return q.Decrements() == 0
}
