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

package mock

import "github.com/poiesic/trendline/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	generator *MockGenerator
}

// NewMockProvider creates a new mock provider with a default mock generator.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockGenerator() to access the concrete type for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{generator: NewMockGenerator()}
}

// NewMockProviderWithGenerator creates a mock provider around generator.
func NewMockProviderWithGenerator(generator *MockGenerator) ai.Provider {
	return &MockProvider{generator: generator}
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}
