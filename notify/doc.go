// Package notify pushes enrichment job snapshots to subscribers.
//
// Polling the orchestrator stays the primary way to observe a job; a
// publisher is an optional push channel on top of it.
package notify
