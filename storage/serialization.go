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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/trendline/core"
)

// MarshalTrend serializes a Trend to bytes.
func MarshalTrend(t *core.Trend) ([]byte, error) {
	return marshal(t)
}

// UnmarshalTrend deserializes a Trend from bytes.
func UnmarshalTrend(data []byte) (*core.Trend, error) {
	var t core.Trend
	if err := unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalJob serializes an EnrichmentJob to bytes.
func MarshalJob(j *core.EnrichmentJob) ([]byte, error) {
	return marshal(j)
}

// UnmarshalJob deserializes an EnrichmentJob from bytes.
func UnmarshalJob(data []byte) (*core.EnrichmentJob, error) {
	var j core.EnrichmentJob
	if err := unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// MarshalSourceState serializes a SourceState to bytes.
func MarshalSourceState(s *core.SourceState) ([]byte, error) {
	return marshal(s)
}

// UnmarshalSourceState deserializes a SourceState from bytes.
func UnmarshalSourceState(data []byte) (*core.SourceState, error) {
	var s core.SourceState
	if err := unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}
