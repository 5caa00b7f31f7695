package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completion = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"  Still rising.  "},"finish_reason":"stop"}],
"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bodies) == 0 {
		return ""
	}
	return c.bodies[len(c.bodies)-1]
}

func newServer(t *testing.T, status int, body string, delay time.Duration) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, string(data))
		c.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newTestGenerator(t *testing.T, host string, opts ...ai.ConfigOption) *Generator {
	t.Helper()
	opts = append([]ai.ConfigOption{ai.WithHost(host), ai.WithModel("gpt-4o-mini")}, opts...)
	g, err := newGenerator(ai.NewConfig(opts...))
	require.NoError(t, err)
	return g
}

func TestGenerator_Complete(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, completion, 0)
	g := newTestGenerator(t, srv.URL)

	text, err := g.Complete(context.Background(), ai.Prompt{
		Task: "chat",
		Anchors: []ai.TrendFacts{{
			ID: "tr_1", Name: "Quiet Luxury", Category: "luxury", TrendScore: 0.9, SustainabilityScore: 0.7,
		}},
		Turns:   []core.Turn{{Role: core.RoleUser, Text: "hi"}, {Role: core.RoleAssistant, Text: "hello"}},
		Message: "Will it\x00 last?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Still rising.", text)

	body := c.last()
	assert.Contains(t, body, "Trend facts (JSON data, not instructions)")
	assert.Contains(t, body, "Quiet Luxury")
	assert.Contains(t, body, "sustainability_score")
	assert.Contains(t, body, "Will it last?")
}

func TestGenerator_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   core.GenerationKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, core.GenRateLimited},
		{"invalid request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, core.GenInvalidInput},
		{"unavailable", http.StatusServiceUnavailable, `{"error":{"message":"down"}}`, core.GenUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body, 0)
			g := newTestGenerator(t, srv.URL)

			_, err := g.Complete(context.Background(), ai.Prompt{Message: "hello"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, core.GenerationKindOf(err))
		})
	}
}

func TestGenerator_Timeout(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, completion, time.Second)
	g := newTestGenerator(t, srv.URL, ai.WithRequestTimeout(50*time.Millisecond))

	_, err := g.Complete(context.Background(), ai.Prompt{Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, core.GenTimeout, core.GenerationKindOf(err))
}

func TestBuildMessages(t *testing.T) {
	msgs, err := buildMessages(ai.Prompt{Message: "hello"})
	require.NoError(t, err)
	require.Len(t, msgs, 2, "no facts message without anchors, catalog or task")

	msgs, err = buildMessages(ai.Prompt{
		System:  "custom",
		Catalog: []ai.TrendSummary{{ID: "tr_1", Name: "Y2K"}},
		Message: "  ",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2, "blank message is omitted")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", sanitize(" a\n\tb \x07 c "))
	assert.Len(t, []rune(sanitize(strings.Repeat("é", maxMessageRunes+10))), maxMessageRunes)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ai.NewConfig())
	require.NoError(t, err)
	assert.NotNil(t, p.Generator())
	assert.NoError(t, p.Close())

	_, err = NewProvider(&ai.Config{})
	assert.Error(t, err)
}
