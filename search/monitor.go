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

package search

import (
	"log/slog"

	"github.com/poiesic/trendline/storage"
)

// SearchMonitor provides hooks for observing the search process.
// Implementations can use these callbacks to track progress, log details,
// or collect metrics about search execution.
type SearchMonitor interface {
	// Start is called when the search begins, after filters are canonicalized.
	Start(req Request)

	// AfterQuery is called with the raw page returned by the index.
	AfterQuery(result *storage.QueryResult)

	// Fallback is called when the index failed and fallback trends are served.
	Fallback(err error)

	// Finish is called with the result handed back to the caller.
	Finish(result *Result)
}

// noopMonitor is a SearchMonitor that does nothing.
type noopMonitor struct{}

func (n *noopMonitor) Start(Request)                   {}
func (n *noopMonitor) AfterQuery(*storage.QueryResult) {}
func (n *noopMonitor) Fallback(error)                  {}
func (n *noopMonitor) Finish(*Result)                  {}

// LogMonitor reports every stage of a search at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(req Request) {
	m.logger().Debug("search started", "text", req.Text, "category", req.Category, "region", req.Region, "page", req.Page)
}

func (m *LogMonitor) AfterQuery(result *storage.QueryResult) {
	m.logger().Debug("index answered", "hits", len(result.Hits), "total", result.Total, "took", result.ProcessingTime)
}

func (m *LogMonitor) Fallback(err error) {
	m.logger().Warn("serving fallback trends", "err", err)
}

func (m *LogMonitor) Finish(result *Result) {
	m.logger().Debug("search finished", "hits", len(result.Hits), "total", result.Total, "degraded", result.Degraded)
}
