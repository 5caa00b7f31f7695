package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/ai/mock"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage/badger"
	"github.com/poiesic/trendline/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T, opts ...Option) (*Service, *mock.MockGenerator, *badger.TrendIndex) {
	t.Helper()
	index, _, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	now := time.Now().UTC()
	for i, name := range []string{"Cargo Pants", "Quiet Luxury", "Ballet Flats"} {
		tr := anchorTrend("tr_"+name, name)
		tr.Scores.Trend = 0.5 + float64(i)/10
		tr.CreatedAt, tr.UpdatedAt = now, now
		require.NoError(t, index.Upsert(context.Background(), tr))
	}

	pool, err := workers.New(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	gen := mock.NewMockGenerator()
	opts = append([]Option{WithPool(pool)}, opts...)
	svc, err := NewService(gen, index, opts...)
	require.NoError(t, err)
	return svc, gen, index
}

func TestService_NewSessionWithAnchor(t *testing.T) {
	svc, gen, _ := setupService(t)

	resp, err := svc.Chat(context.Background(), Request{
		Message:        "Give me an analysis of this trend",
		AnchorTrendIDs: []string{"tr_Cargo Pants"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, TypeTrendAnalysis, resp.Type)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "[chat] Cargo Pants: Give me an analysis of this trend", resp.Response)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	require.Len(t, prompts[0].Anchors, 1)
	assert.Equal(t, "streetwear", prompts[0].Anchors[0].Category)
	assert.Empty(t, prompts[0].Catalog)

	session, err := svc.Sessions().Get(resp.SessionID)
	require.NoError(t, err)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, core.RoleAssistant, session.Turns[1].Role)
	assert.Equal(t, []string{"tr_Cargo Pants"}, session.AnchorTrendIDs)

	// Anchors persist across turns and history is carried.
	_, err = svc.Chat(context.Background(), Request{SessionID: resp.SessionID, Message: "and colors?"})
	require.NoError(t, err)
	prompts = gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Len(t, prompts[1].Anchors, 1)
	assert.Len(t, prompts[1].Turns, 2)
}

func TestService_CatalogWithoutAnchors(t *testing.T) {
	svc, gen, _ := setupService(t, WithCatalogSize(2))

	_, err := svc.Chat(context.Background(), Request{Message: "what is hot?"})
	require.NoError(t, err)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Empty(t, prompts[0].Anchors)
	require.Len(t, prompts[0].Catalog, 2)
	assert.Equal(t, "Ballet Flats", prompts[0].Catalog[0].Name)
}

func TestService_DegradesOnGenerationError(t *testing.T) {
	svc, gen, _ := setupService(t)
	gen.CompleteFunc = func(context.Context, ai.Prompt) (string, error) {
		return "", &core.GenerationError{Kind: core.GenRateLimited}
	}

	resp, err := svc.Chat(context.Background(), Request{Message: "hello"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, string(core.GenRateLimited), resp.Error)
	assert.Equal(t, unavailableReply, resp.Response)
}

func TestService_ResetCancelsInflight(t *testing.T) {
	svc, gen, _ := setupService(t)
	id := svc.Sessions().Create().SessionID

	started := make(chan struct{})
	gen.CompleteFunc = func(ctx context.Context, _ ai.Prompt) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}

	errs := make(chan error, 1)
	go func() {
		_, err := svc.Chat(context.Background(), Request{SessionID: id, Message: "hello"})
		errs <- err
	}()

	<-started
	_, err := svc.Sessions().Reset(id)
	require.NoError(t, err)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrSessionReset)
	case <-time.After(5 * time.Second):
		t.Fatal("chat request was not cancelled by reset")
	}

	session, err := svc.Sessions().Get(id)
	require.NoError(t, err)
	assert.Empty(t, session.Turns)
}

func TestService_Errors(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Chat(context.Background(), Request{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Chat(context.Background(), Request{SessionID: "missing", Message: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = NewService(nil, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestService_ConcurrentChatsOnOneSession(t *testing.T) {
	svc, gen, _ := setupService(t)
	gen.CompleteFunc = func(ctx context.Context, prompt ai.Prompt) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "ok " + prompt.Message, nil
	}
	id := svc.Sessions().Create().SessionID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Chat(context.Background(), Request{SessionID: id, Message: msg})
		}()
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	session, err := svc.Sessions().Get(id)
	require.NoError(t, err)
	require.Len(t, session.Turns, 4)
	var texts []string
	for _, turn := range session.Turns {
		texts = append(texts, turn.Text)
	}
	assert.ElementsMatch(t, []string{"first", "ok first", "second", "ok second"}, texts)
}
