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

package chat

import (
	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/core"
)

const (
	// DefaultMaxTurns is the number of prior turns carried into a request.
	DefaultMaxTurns = 10
	// DefaultMaxAnchors is the number of anchor trends carried into a request.
	DefaultMaxAnchors = 1
	// DefaultMaxTurnChars bounds the combined length of carried turns.
	DefaultMaxTurnChars = 8000
)

const systemPrompt = `You are a fashion trend assistant. Ground every answer in the trend facts provided.
When anchor trends are present, answer about them specifically: use their scores, colors, brands, regions and demographics.
When only a catalog is present, use it as background on what is trending now.
Give practical styling and shopping advice. Be concise and specific.`

// Assembler builds bounded, structured prompts from a session.
type Assembler struct {
	maxTurns     int
	maxAnchors   int
	maxTurnChars int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxTurns sets how many prior turns are carried.
func WithMaxTurns(n int) AssemblerOption {
	return func(a *Assembler) {
		if n >= 0 {
			a.maxTurns = n
		}
	}
}

// WithMaxAnchors sets how many anchor trends are carried.
func WithMaxAnchors(n int) AssemblerOption {
	return func(a *Assembler) {
		if n >= 0 {
			a.maxAnchors = n
		}
	}
}

// WithMaxTurnChars bounds the combined text length of carried turns.
// Zero disables the bound.
func WithMaxTurnChars(n int) AssemblerOption {
	return func(a *Assembler) {
		if n >= 0 {
			a.maxTurnChars = n
		}
	}
}

// NewAssembler creates an assembler with default bounds.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		maxTurns:     DefaultMaxTurns,
		maxAnchors:   DefaultMaxAnchors,
		maxTurnChars: DefaultMaxTurnChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxAnchors returns the anchor bound.
func (a *Assembler) MaxAnchors() int {
	return a.maxAnchors
}

// Assemble builds the prompt for message within session. Anchors beyond the
// anchor bound are ignored. Turns are evicted oldest first until both the
// turn-count and length bounds hold; anchors are never evicted.
func (a *Assembler) Assemble(session *core.ChatContext, anchors []*core.Trend, message string) ai.Prompt {
	p := ai.Prompt{
		System:  systemPrompt,
		Task:    "chat",
		Message: message,
	}

	for _, t := range anchors {
		if len(p.Anchors) == a.maxAnchors {
			break
		}
		if t != nil {
			p.Anchors = append(p.Anchors, ai.FactsOf(t))
		}
	}

	if session == nil {
		return p
	}
	turns := session.Turns
	if over := len(turns) - a.maxTurns; over > 0 {
		turns = turns[over:]
	}
	if a.maxTurnChars > 0 {
		size := 0
		for _, t := range turns {
			size += len(t.Text)
		}
		for len(turns) > 0 && size > a.maxTurnChars {
			size -= len(turns[0].Text)
			turns = turns[1:]
		}
	}
	if len(turns) > 0 {
		p.Turns = append([]core.Turn(nil), turns...)
	}
	return p
}
