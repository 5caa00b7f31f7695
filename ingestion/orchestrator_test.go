package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/sources"
	"github.com/poiesic/trendline/storage"
	"github.com/poiesic/trendline/storage/badger"
	"github.com/poiesic/trendline/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned records per source. failures[source] makes the
// first n calls fail; gate, when set, blocks every fetch until closed.
type fakeFetcher struct {
	mu       sync.Mutex
	records  map[string][]core.RawRecord
	failures map[string]int
	calls    map[string]int
	gate     chan struct{}
	entered  chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records:  make(map[string][]core.RawRecord),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, cfg sources.Config) ([]core.RawRecord, error) {
	f.mu.Lock()
	f.calls[cfg.Name]++
	fail := f.failures[cfg.Name] > 0
	if fail {
		f.failures[cfg.Name]--
	}
	records := f.records[cfg.Name]
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- cfg.Name
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, &core.FetchError{Source: cfg.Name, Cause: core.ErrUnexpectedStatus}
	}
	return records, nil
}

func (f *fakeFetcher) callCount(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[source]
}

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []core.JobStatus
}

func (p *recordingPublisher) PublishJob(ctx context.Context, job *core.EnrichmentJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, job.Status)
	return nil
}

func raw(source, name, brand, category string) core.RawRecord {
	return core.RawRecord{
		Source:              source,
		Kind:                core.KindStatic,
		Name:                name,
		Brand:               brand,
		Category:            category,
		Regions:             []string{"global"},
		TrendScore:          core.Float(0.8),
		GrowthRate:          core.Float(12),
		SustainabilityScore: core.Float(0.6),
	}
}

func testCatalog(names ...string) *sources.Catalog {
	c := &sources.Catalog{}
	for _, n := range names {
		c.Sources = append(c.Sources, sources.Config{
			Source: core.Source{Name: n, UpdateFrequency: "daily"},
			Kind:   core.KindStatic,
		})
	}
	return c
}

func setupOrchestrator(t *testing.T, fetcher Fetcher, opts ...Option) (*Orchestrator, *badger.TrendIndex, *badger.JobRepository) {
	t.Helper()
	index, jobs, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	pool, err := workers.New(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	o, err := NewOrchestrator(testCatalog("a", "b"), fetcher, index, jobs, pool, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Shutdown(context.Background()) })
	return o, index, jobs
}

func runJob(t *testing.T, o *Orchestrator, req Request) *core.EnrichmentJob {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ack, err := o.Start(ctx, req)
	require.NoError(t, err)
	job, err := o.Wait(ctx, ack.JobID)
	require.NoError(t, err)
	return job
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(nil, newFakeFetcher(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrCatalogRequired)

	_, err = NewOrchestrator(testCatalog("a"), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewOrchestrator(testCatalog("a"), newFakeFetcher(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}

func TestOrchestrator_OverlappingSourcesProduceTwoTrends(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{
		raw("a", "Oversized Blazer", "Zara", "streetwear"),
		raw("a", "Ballet Flats", "", "footwear"),
	}
	f.records["b"] = []core.RawRecord{
		raw("b", "  oversized   BLAZER ", "zara", "streetwear"),
	}
	o, index, _ := setupOrchestrator(t, f)

	job := runJob(t, o, Request{Sources: []string{"a", "b"}, Force: true})

	assert.Equal(t, core.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Results["a"].Indexed)
	assert.Equal(t, 1, job.Results["b"].Indexed)
	assert.False(t, job.StartedAt.IsZero())
	assert.False(t, job.FinishedAt.IsZero())

	n, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := index.Query(context.Background(), storage.Query{Text: "blazer"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, res.Hits[0].Sources)
}

func TestOrchestrator_Idempotent(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{raw("a", "Quiet Luxury", "The Row", "luxury")}
	o, index, _ := setupOrchestrator(t, f)

	first := runJob(t, o, Request{Sources: []string{"a"}, Force: true})
	second := runJob(t, o, Request{Sources: []string{"a"}, Force: true})
	assert.NotEqual(t, first.ID, second.ID)

	n, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, f.callCount("a"))
}

func TestOrchestrator_CoalescesActiveJob(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{raw("a", "Quiet Luxury", "The Row", "luxury")}
	f.gate = make(chan struct{})
	f.entered = make(chan string, 4)
	o, _, _ := setupOrchestrator(t, f)

	ctx := context.Background()
	first, err := o.Start(ctx, Request{Sources: []string{"a"}, Force: true})
	require.NoError(t, err)
	<-f.entered

	second, err := o.Start(ctx, Request{Sources: []string{"a"}, Force: true})
	require.NoError(t, err)
	assert.True(t, second.Coalesced)
	assert.Equal(t, first.JobID, second.JobID)

	close(f.gate)
	a, err := o.Wait(ctx, first.JobID)
	require.NoError(t, err)
	b, err := o.Wait(ctx, second.JobID)
	require.NoError(t, err)

	assert.Equal(t, a.Results, b.Results)
	assert.Equal(t, core.JobCompleted, b.Status)
	assert.Equal(t, 1, f.callCount("a"))
}

func TestOrchestrator_PartialWhenOneSourceFails(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{raw("a", "Quiet Luxury", "The Row", "luxury")}
	f.failures["b"] = 100
	o, _, _ := setupOrchestrator(t, f)

	job := runJob(t, o, Request{Force: true})

	assert.Equal(t, core.JobPartial, job.Status)
	assert.True(t, job.Results["a"].Succeeded())
	assert.NotEmpty(t, job.Results["b"].Error)
	assert.Equal(t, DefaultMaxAttempts, job.Results["b"].Attempts)
	assert.Equal(t, DefaultMaxAttempts, f.callCount("b"))
}

func TestOrchestrator_FailedWhenEverySourceFails(t *testing.T) {
	f := newFakeFetcher()
	f.failures["a"] = 100
	f.failures["b"] = 100
	o, _, _ := setupOrchestrator(t, f, WithMaxAttempts(2))

	job := runJob(t, o, Request{Force: true})

	assert.Equal(t, core.JobFailed, job.Status)
	assert.Equal(t, 2, job.Results["a"].Attempts)
}

func TestOrchestrator_RetriesBeforeFailing(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{raw("a", "Quiet Luxury", "The Row", "luxury")}
	f.failures["a"] = 2
	o, _, _ := setupOrchestrator(t, f)

	job := runJob(t, o, Request{Sources: []string{"a"}, Force: true})

	assert.Equal(t, core.JobCompleted, job.Status)
	assert.Equal(t, 3, job.Results["a"].Attempts)
	assert.Equal(t, 1, job.Results["a"].Indexed)
}

func TestOrchestrator_SkipsFreshSourcesWithoutForce(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{raw("a", "Quiet Luxury", "The Row", "luxury")}
	o, _, jobs := setupOrchestrator(t, f)

	first := runJob(t, o, Request{Sources: []string{"a"}})
	assert.False(t, first.Results["a"].Skipped)

	state, err := jobs.LoadSourceState(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, first.ID, state.LastJobID)

	second := runJob(t, o, Request{Sources: []string{"a"}})
	assert.True(t, second.Results["a"].Skipped)
	assert.Equal(t, core.JobCompleted, second.Status)
	assert.Equal(t, 1, f.callCount("a"))

	runJob(t, o, Request{Sources: []string{"a"}, Force: true})
	assert.Equal(t, 2, f.callCount("a"))
}

func TestOrchestrator_FiltersAndDrops(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{
		raw("a", "Cargo Pants", "", "street style"),
		raw("a", "Quiet Luxury", "The Row", "luxury"),
		raw("a", "   ", "", "luxury"),
	}
	over := raw("a", "Upcycled Denim", "", "street")
	over.SustainabilityScore = core.Float(1.4)
	f.records["a"] = append(f.records["a"], over)
	o, index, _ := setupOrchestrator(t, f)

	job := runJob(t, o, Request{Sources: []string{"a"}, Categories: []string{"Streetwear"}, Force: true})

	r := job.Results["a"]
	assert.Equal(t, 4, r.Fetched)
	assert.Equal(t, 2, r.Indexed)
	assert.Equal(t, 1, r.Filtered)
	assert.Equal(t, 1, r.Dropped)
	assert.Equal(t, 1, r.Clamped)

	n, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOrchestrator_UnknownSource(t *testing.T) {
	o, _, _ := setupOrchestrator(t, newFakeFetcher())

	_, err := o.Start(context.Background(), Request{Sources: []string{"a", "nope"}})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestOrchestrator_Status(t *testing.T) {
	f := newFakeFetcher()
	o, _, _ := setupOrchestrator(t, f)

	_, err := o.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrJobNotFound)

	job := runJob(t, o, Request{Sources: []string{"b"}, Force: true})

	latest, err := o.Status(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, job.ID, latest.ID)

	_, err = o.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	history, err := o.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.JobCompleted, history[0].Status)
}

func TestOrchestrator_PublishesTransitions(t *testing.T) {
	pub := &recordingPublisher{}
	o, _, _ := setupOrchestrator(t, newFakeFetcher(), WithPublisher(pub))

	runJob(t, o, Request{Sources: []string{"a"}, Force: true})

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.NotEmpty(t, pub.statuses)
	assert.Equal(t, core.JobPending, pub.statuses[0])
	assert.Contains(t, pub.statuses, core.JobRunning)
	assert.Equal(t, core.JobCompleted, pub.statuses[len(pub.statuses)-1])
}

func TestOrchestrator_ShutdownRejectsNewJobs(t *testing.T) {
	o, _, _ := setupOrchestrator(t, newFakeFetcher())
	require.NoError(t, o.Shutdown(context.Background()))

	_, err := o.Start(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestOrchestrator_SharedRefreshKeepsCallerFilters(t *testing.T) {
	f := newFakeFetcher()
	f.records["a"] = []core.RawRecord{
		raw("a", "Cargo Pants", "", "streetwear"),
		raw("a", "Quiet Luxury", "The Row", "luxury"),
		raw("a", "Old Money", "Loro Piana", "luxury"),
		raw("a", "Ballet Flats", "Repetto", "footwear"),
	}
	gate := make(chan struct{})
	f.gate = gate
	f.entered = make(chan string, 16)
	o, _, _ := setupOrchestrator(t, f)

	filters := []filter{
		{categories: []string{"streetwear"}, force: true},
		{categories: []string{"luxury"}, force: true},
		{force: true},
	}
	results := make([]core.SourceResult, len(filters))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = o.refreshShared("a", filters[0])
	}()
	<-f.entered

	// Both latecomers join the first refresh, then contend for the next one.
	for i := 1; i < len(filters); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.refreshShared("a", filters[i])
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, results[0].Indexed)
	assert.Equal(t, 3, results[0].Filtered)
	assert.Equal(t, 2, results[1].Indexed)
	assert.Equal(t, 2, results[1].Filtered)
	assert.Equal(t, 4, results[2].Indexed)
	assert.Zero(t, results[2].Filtered)
}
