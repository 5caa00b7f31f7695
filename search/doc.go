// Package search serves the trend listing surface on top of a storage.TrendIndex.
//
// A Searcher maps category and region filters onto the canonical vocabulary,
// runs the query against the index, and reports facet counts and paging.
// When the index is unreachable it answers from a small built-in set of
// fallback trends and labels the result as degraded, so callers always get
// a usable page together with an explicit quality signal.
//
// Basic usage:
//
//	searcher, err := search.NewSearcher(index)
//	if err != nil {
//	    return err
//	}
//	result, err := searcher.Search(ctx, search.Request{Text: "streetwear", PerPage: 10})
//
// Implement SearchMonitor to observe each stage of a query.
package search
