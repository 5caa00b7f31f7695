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

// Package mock provides a test double for the ai package.
//
// # Usage
//
//	gen := mock.NewMockGenerator()
//	gen.CompleteFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
//	    if p.Task == "market" {
//	        return "", &core.GenerationError{Kind: core.GenRateLimited}
//	    }
//	    return "ok", nil
//	}
//
//	// Check call counts and captured prompts
//	count := gen.CallCount()
//	prompts := gen.Prompts()
//
// # Default Behavior
//
// Without CompleteFunc, MockGenerator returns "[task] anchor names: message"
// and honors context cancellation.
package mock
