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

package ingestion

import "errors"

var (
	// ErrIndexRequired is returned when a trend index is not provided.
	ErrIndexRequired = errors.New("trend index required")

	// ErrJobRepositoryRequired is returned when a job repository is not provided.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrFetcherRequired is returned when no source fetcher is provided.
	ErrFetcherRequired = errors.New("source fetcher required")

	// ErrPoolRequired is returned when no worker pool is provided.
	ErrPoolRequired = errors.New("worker pool required")

	// ErrCatalogRequired is returned when no source catalog is provided.
	ErrCatalogRequired = errors.New("source catalog required")

	// ErrUnknownSource is returned when a request names a source missing from the catalog.
	ErrUnknownSource = errors.New("unknown source")

	// ErrJobNotFound is returned when no job matches the requested ID.
	ErrJobNotFound = errors.New("enrichment job not found")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be positive")

	// ErrClosed is returned when a request arrives after Shutdown.
	ErrClosed = errors.New("orchestrator is shut down")
)
