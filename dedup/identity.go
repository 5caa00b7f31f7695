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

package dedup

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// keyPrefix marks identifiers minted from trend identity.
const keyPrefix = "tr_"

// IdentityKey derives the stable trend identifier from its identity fields.
// Comparison is case-insensitive and whitespace-collapsed, so "Quiet  Luxury"
// and "quiet luxury" produce the same key. Pass an empty source to match the
// same trend across sources.
func IdentityKey(name, brand, source string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(canonical(name)))
	h.Write([]byte{0})
	h.Write([]byte(canonical(brand)))
	h.Write([]byte{0})
	h.Write([]byte(canonical(source)))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func canonical(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
