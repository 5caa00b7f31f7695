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

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/trendline/ai"
)

// MockGenerator is a test double for ai.Generator. It is safe for
// concurrent use.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a deterministic summary of the prompt.
	CompleteFunc func(ctx context.Context, prompt ai.Prompt) (string, error)

	mu      sync.Mutex
	prompts []ai.Prompt
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Complete(ctx context.Context, prompt ai.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Default: echo the task, the anchors and the message
	names := make([]string, 0, len(prompt.Anchors))
	for _, a := range prompt.Anchors {
		names = append(names, a.Name)
	}
	return fmt.Sprintf("[%s] %s: %s", prompt.Task, strings.Join(names, ", "), prompt.Message), nil
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockGenerator) Prompts() []ai.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.Prompt(nil), m.prompts...)
}

func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.CompleteFunc = nil
}
