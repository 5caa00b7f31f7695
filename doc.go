// Package trendline collects fashion trends from external sources into a
// searchable index and serves AI analysis over them.
//
// An Engine wires the pieces together: the BadgerDB trend index, the shared
// worker pool, the text generation provider, the enrichment orchestrator and
// the chat, analysis and search services. Open one with NewEngine or
// FromConfig and Close it when done:
//
//	engine, err := trendline.NewEngine("./trends.db")
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	ack, err := engine.Enricher().Start(ctx, ingestion.Request{})
package trendline
