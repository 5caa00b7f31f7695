// Package ingestion orchestrates enrichment jobs that pull trends from
// configured sources into the trend index.
//
// An Orchestrator accepts a Request, creates an EnrichmentJob and drives it
// through pending, running and one of completed, partial or failed:
//   - One worker per requested source, each bounded by the shared worker pool
//   - Fetch failures retried with exponential backoff before being recorded
//   - Records normalized, filtered and merged under their identity key
//
// At most one refresh of a given source runs at a time. A request whose
// sources are all covered by an active job joins that job instead of
// starting another. Job state is written only by the job's run loop and is
// persisted and published on every transition.
package ingestion
