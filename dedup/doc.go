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

// Package dedup assigns stable identities to trends and merges repeated
// observations of the same trend into one record.
//
// The identity key is a BLAKE2b digest of the case-insensitive,
// whitespace-collapsed name and brand (and optionally source). Resolve is a
// pure decision; callers apply it inside an atomic read-modify-write so
// concurrent merges of the same key cannot lose updates.
package dedup
