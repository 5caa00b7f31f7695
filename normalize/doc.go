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

// Package normalize converts heterogeneous RawRecords into canonical trends.
//
// Normalization is a pure function of its input. It maps category and region
// spellings through a Vocabulary (unknown values pass through unchanged),
// rescales percent scores to the unit interval, clamps out-of-range values,
// rescales gender splits to 100 and parses dates in several layouts. Every
// adjustment is reported in a Quality value so callers can account for data
// quality without rejecting the record. Only a missing name rejects a record.
package normalize
