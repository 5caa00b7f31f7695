package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/trendline/ai/mock"
	"github.com/poiesic/trendline/analysis"
	"github.com/poiesic/trendline/chat"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/search"
	"github.com/poiesic/trendline/sources"
	"github.com/poiesic/trendline/storage/badger"
	"github.com/poiesic/trendline/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
sources:
  - name: lookbook
    description: Curated lookbook
    update_frequency: hourly
    kind: static
    records:
      - name: Quiet Luxury
        brand: The Row
        category: high fashion
        regions: [europe]
        trend_score: 0.9
        growth_rate: 20
        sustainability_score: 0.7
      - name: Gorpcore
        brand: Arcteryx
        category: street style
        regions: [usa]
        trend_score: 0.8
        growth_rate: 30
        sustainability_score: 0.5
`

type testEnv struct {
	server   *httptest.Server
	index    *badger.TrendIndex
	enricher *ingestion.Orchestrator
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	index, jobs, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	pool, err := workers.New(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	catalog, err := sources.ParseCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)
	enricher, err := ingestion.NewOrchestrator(catalog, sources.NewRegistry(nil), index, jobs, pool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = enricher.Shutdown(context.Background()) })

	gen := mock.NewMockGenerator()
	chatSvc, err := chat.NewService(gen, index, chat.WithPool(pool))
	require.NoError(t, err)
	aggregator, err := analysis.NewAggregator(gen, index, analysis.WithPool(pool))
	require.NoError(t, err)
	searcher, err := search.NewSearcher(index)
	require.NoError(t, err)

	srv := NewServer(Config{CORSOrigins: []string{"http://localhost:3000"}}, Deps{
		Trends:   searcher,
		Chat:     chatSvc,
		Sessions: chatSvc.Sessions(),
		Analysis: aggregator,
		Enricher: enricher,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, index: index, enricher: enricher}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// enrich runs the catalog through the enrichment endpoint and waits for it.
func (e *testEnv) enrich(t *testing.T) *core.EnrichmentJob {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/v1/enrichment/enrich-trends", map[string]any{"force_refresh": true})
	require.Equal(t, http.StatusAccepted, code)
	ack := decode[ingestion.Ack](t, resp.Data)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := e.enricher.Wait(ctx, ack.JobID)
	require.NoError(t, err)
	return job
}

func TestHealth(t *testing.T) {
	env := setup(t)
	code, resp := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestEnrichmentFlow(t *testing.T) {
	env := setup(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/enrichment/enrichment-status", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)

	job := env.enrich(t)
	assert.Equal(t, core.JobCompleted, job.Status)

	code, resp = env.do(t, http.MethodGet, "/api/v1/enrichment/enrichment-status", nil)
	require.Equal(t, http.StatusOK, code)
	latest := decode[core.EnrichmentJob](t, resp.Data)
	assert.Equal(t, job.ID, latest.ID)
	assert.Equal(t, 2, latest.Results["lookbook"].Indexed)

	code, resp = env.do(t, http.MethodGet, "/api/v1/enrichment/enrichment-status?job_id="+job.ID, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/enrichment/jobs?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]core.EnrichmentJob](t, resp.Data), 1)

	code, resp = env.do(t, http.MethodGet, "/api/v1/enrichment/scraped-sources", nil)
	require.Equal(t, http.StatusOK, code)
	srcs := decode[struct {
		Sources []core.Source `json:"sources"`
		Total   int           `json:"total_sources"`
	}](t, resp.Data)
	assert.Equal(t, 1, srcs.Total)
	assert.Equal(t, "lookbook", srcs.Sources[0].Name)

	code, resp = env.do(t, http.MethodGet, "/api/v1/enrichment/enrichment-analytics", nil)
	require.Equal(t, http.StatusOK, code)
	analytics := decode[ingestion.Analytics](t, resp.Data)
	assert.Equal(t, 2, analytics.TotalTrends)
	assert.InDelta(t, 1.0, analytics.Quality.Accuracy, 1e-9)
}

func TestEnrich_UnknownSource(t *testing.T) {
	env := setup(t)
	code, resp := env.do(t, http.MethodPost, "/api/v1/enrichment/enrich-trends", map[string]any{"sources": []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestEnrich_RejectsUnknownFields(t *testing.T) {
	env := setup(t)
	code, _ := env.do(t, http.MethodPost, "/api/v1/enrichment/enrich-trends", map[string]any{"sauce": true})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTrendEndpoints(t *testing.T) {
	env := setup(t)
	env.enrich(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/trends/?category=streetwear", nil)
	require.Equal(t, http.StatusOK, code)
	result := decode[search.Result](t, resp.Data)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Gorpcore", result.Hits[0].Name)
	assert.False(t, result.Degraded)

	code, resp = env.do(t, http.MethodGet, "/api/v1/trends/?page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, code)
	result = decode[search.Result](t, resp.Data)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 0, result.Page)

	code, _ = env.do(t, http.MethodGet, "/api/v1/trends/?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodGet, "/api/v1/trends/?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/trends/"+result.Hits[0].ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, result.Hits[0].Name, decode[core.Trend](t, resp.Data).Name)

	code, _ = env.do(t, http.MethodGet, "/api/v1/trends/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/trends/categories", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"luxury", "streetwear"}, decode[search.Listing](t, resp.Data).Values)

	code, resp = env.do(t, http.MethodGet, "/api/v1/trends/regions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Europe", "North America"}, decode[search.Listing](t, resp.Data).Values)

	code, resp = env.do(t, http.MethodGet, "/api/v1/trends/stats/combined", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, search.Stats{TotalTrends: 2, Categories: 2, Regions: 2}, decode[search.Stats](t, resp.Data))
}

func TestChatEndpoints(t *testing.T) {
	env := setup(t)
	env.enrich(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/ai/chat", chat.Request{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodPost, "/api/v1/ai/chat", chat.Request{Message: "What should I predict for next season?"})
	require.Equal(t, http.StatusOK, code)
	reply := decode[chat.Response](t, resp.Data)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, chat.TypePrediction, reply.Type)
	assert.False(t, reply.Degraded)

	code, resp = env.do(t, http.MethodGet, "/api/v1/ai/sessions/"+reply.SessionID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[core.ChatContext](t, resp.Data).Turns, 2)

	code, resp = env.do(t, http.MethodPost, "/api/v1/ai/sessions/"+reply.SessionID+"/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[core.ChatContext](t, resp.Data).Turns)

	code, _ = env.do(t, http.MethodDelete, "/api/v1/ai/sessions/"+reply.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/ai/chat", chat.Request{SessionID: reply.SessionID, Message: "hello"})
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodPost, "/api/v1/ai/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, decode[core.ChatContext](t, resp.Data).SessionID)

	code, resp = env.do(t, http.MethodGet, "/api/v1/ai/suggestions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[map[string][]string](t, resp.Data)["suggestions"])
}

func TestComprehensiveAnalysis(t *testing.T) {
	env := setup(t)
	env.enrich(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/trends/?query=gorpcore", nil)
	require.Equal(t, http.StatusOK, code)
	id := decode[search.Result](t, resp.Data).Hits[0].ID

	code, resp = env.do(t, http.MethodPost, "/api/v1/ai/comprehensive-analysis", analysisRequest{TrendID: id})
	require.Equal(t, http.StatusOK, code)
	report := decode[core.AnalysisReport](t, resp.Data)
	assert.Equal(t, id, report.TrendID)
	assert.Equal(t, core.ConfidenceLow, report.Score.Confidence, "one source cannot corroborate")

	code, _ = env.do(t, http.MethodPost, "/api/v1/ai/comprehensive-analysis", analysisRequest{TrendID: "missing"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/ai/comprehensive-analysis", analysisRequest{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCORS(t *testing.T) {
	env := setup(t)
	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/v1/trends/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
