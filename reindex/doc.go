// Package reindex re-applies the current normalization rules to every trend
// already stored in the index.
//
// Vocabulary changes (a new category synonym, a merged region) and tightened
// clamping only affect records ingested afterwards. A Reindexer walks the
// index in batches, renormalizes each stored trend, and writes back the ones
// that changed, reporting progress to a writer as it goes.
package reindex
