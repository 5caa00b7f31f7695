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

package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types. Every prefix ends in a separator so
// no prefix is a prefix of another.
const (
	trendPrefix       = "trend:"
	jobPrefix         = "job:"
	jobTimePrefix     = "jobt:"
	sourceStatePrefix = "srcst:"
)

// makeTrendKey generates a key for a trend by ID.
func makeTrendKey(id string) []byte {
	return []byte(trendPrefix + id)
}

// makeJobKey generates a key for an enrichment job by ID.
func makeJobKey(id string) []byte {
	return []byte(jobPrefix + id)
}

// makeJobTimeKey generates a composite key for the job creation-time index.
// Format: prefix + timestamp + id
func makeJobTimeKey(created time.Time, id string) []byte {
	buf := make([]byte, len(jobTimePrefix)+8+len(id))
	offset := copy(buf, jobTimePrefix)
	// Big endian keeps lexicographic order equal to chronological order
	binary.BigEndian.PutUint64(buf[offset:], uint64(created.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// jobIDFromTimeKey extracts the job ID from a creation-time index key.
func jobIDFromTimeKey(key []byte) string {
	if len(key) < len(jobTimePrefix)+8 {
		return ""
	}
	return string(key[len(jobTimePrefix)+8:])
}

// makeSourceStateKey generates a key for a source's refresh state.
func makeSourceStateKey(source string) []byte {
	return []byte(sourceStatePrefix + source)
}
