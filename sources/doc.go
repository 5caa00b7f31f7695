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

// Package sources fetches raw trend observations from external origins.
//
// A Catalog (YAML, with a built-in default) describes each source: its public
// descriptor, its kind and how to reach it. Adapters are keyed by kind rather
// than by source, hold no per-fetch state and receive the source configuration
// on every call:
//
//   - html: <article> extraction from a web page (golang.org/x/net/html)
//   - feed: JSON arrays of trend objects, unknown keys kept as extensions
//   - static: records declared in the catalog itself
//
// The Registry applies each source's fetch timeout and reports every failure
// as a *core.FetchError; an expired deadline wraps core.ErrTimeout.
package sources
