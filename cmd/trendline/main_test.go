package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/trendline/chat"
)

const lookbookYAML = `
sources:
  - name: lookbook
    update_frequency: daily
    kind: static
    records:
      - {name: Ballet Flats, brand: Repetto, category: shoes, regions: [france], trend_score: 0.7}
      - {name: Barn Jackets, brand: Barbour, category: heritage, regions: [uk], trend_score: 0.6}
`

// runApp executes the CLI with args and returns what it wrote to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader("")
	err := app.Run(append([]string{"trendline"}, args...))
	return out.String(), err
}

func findCommand(t *testing.T, name string) *cli.Command {
	t.Helper()
	for _, cmd := range newApp().Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestSetupLogger(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := runApp(t, "--log-level", tt.level, "sources")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestReindexCommandFlags(t *testing.T) {
	cmd := findCommand(t, "reindex")

	defaults := map[string]int{
		"batch-size":      100,
		"report-interval": 100,
		"max-retries":     3,
	}
	for _, flag := range cmd.Flags {
		switch f := flag.(type) {
		case *cli.IntFlag:
			if want, ok := defaults[f.Name]; ok {
				assert.Equal(t, want, f.Value, f.Name)
				delete(defaults, f.Name)
			}
		case *cli.DurationFlag:
			if f.Name == "retry-delay" {
				assert.Equal(t, time.Second, f.Value)
			}
		}
	}
	assert.Empty(t, defaults, "missing reindex flags")

	t.Run("batch-size must be positive", func(t *testing.T) {
		_, err := runApp(t, "reindex", "--in-memory", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("report-interval must be positive", func(t *testing.T) {
		_, err := runApp(t, "reindex", "--in-memory", "--report-interval", "-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report-interval")
	})

	t.Run("max-retries must be positive", func(t *testing.T) {
		_, err := runApp(t, "reindex", "--in-memory", "--max-retries", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})

	t.Run("empty index", func(t *testing.T) {
		out, err := runApp(t, "reindex", "--in-memory")
		require.NoError(t, err)
		assert.Contains(t, out, "scanned=0 updated=0 invalid=0")
	})
}

func TestSearchCommandFlags(t *testing.T) {
	cmd := findCommand(t, "search")
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok {
			switch f.Name {
			case "page":
				assert.Equal(t, 1, f.Value)
			case "limit":
				assert.Equal(t, 10, f.Value)
			}
		}
	}

	t.Run("page must be positive", func(t *testing.T) {
		_, err := runApp(t, "search", "--in-memory", "--page", "0")
		require.Error(t, err)
	})

	t.Run("empty index", func(t *testing.T) {
		out, err := runApp(t, "search", "--in-memory", "denim")
		require.NoError(t, err)
		assert.Contains(t, out, "Found 0 trends")
	})
}

func TestSourcesCommand(t *testing.T) {
	t.Run("built-in catalog", func(t *testing.T) {
		out, err := runApp(t, "sources")
		require.NoError(t, err)
		assert.Contains(t, out, "vogue")
		assert.Contains(t, out, "fast_fashion")
	})

	t.Run("catalog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(lookbookYAML), 0o644))

		out, err := runApp(t, "sources", "--catalog", path)
		require.NoError(t, err)
		assert.Contains(t, out, "lookbook")
		assert.NotContains(t, out, "vogue")
	})

	t.Run("missing catalog file", func(t *testing.T) {
		_, err := runApp(t, "sources", "--catalog", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestEnrichCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lookbookYAML), 0o644))

	out, err := runApp(t, "enrich", "--in-memory", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "lookbook")
	assert.Contains(t, out, "indexed=2")

	t.Run("unknown source", func(t *testing.T) {
		_, err := runApp(t, "enrich", "--in-memory", "--catalog", path, "--source", "runway")
		require.Error(t, err)
	})
}

func TestAnalyzeCommand_RequiresID(t *testing.T) {
	_, err := runApp(t, "analyze", "--in-memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trend id")
}

func TestSweepSessions(t *testing.T) {
	store := chat.NewStore(chat.WithSessionTTL(time.Nanosecond))
	store.Create()
	require.Equal(t, 1, store.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepSessions(ctx, store, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}
