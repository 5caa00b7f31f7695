package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/trendline/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_Default(t *testing.T) {
	gen := NewMockGenerator()
	text, err := gen.Complete(context.Background(), ai.Prompt{
		Task:    "chat",
		Anchors: []ai.TrendFacts{{Name: "Y2K"}},
		Message: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "[chat] Y2K: hi", text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Complete(ctx, ai.Prompt{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, gen.CallCount())
}

func TestMockGenerator_Concurrent(t *testing.T) {
	provider := NewMockProvider().(*MockProvider)
	gen := provider.GetMockGenerator()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = provider.Generator().Complete(context.Background(), ai.Prompt{Task: "styling"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, gen.CallCount())
	assert.Len(t, gen.Prompts(), 20)

	gen.Reset()
	assert.Zero(t, gen.CallCount())
}
