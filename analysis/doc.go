// Package analysis builds comprehensive reports on a single trend.
//
// Five facets (popularity, sustainability, market, styling, lifespan) are
// generated in parallel, each under its own timeout. A facet that fails is
// reported as an explicit placeholder and the report's analysis quality
// drops by its share. The comprehensive score weighs popularity 0.3,
// growth 0.2, sustainability 0.25 and analysis quality 0.25 on a 0-100 scale.
package analysis
