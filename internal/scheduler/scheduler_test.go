package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/core"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type memStore struct {
	mu   sync.Mutex
	data map[string][]core.Finding
	puts int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]core.Finding{}}
}

func (m *memStore) Get(_ context.Context, hash string) ([]core.Finding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.data[hash]
	return f, ok
}

func (m *memStore) Put(_ context.Context, _, hash string, findings []core.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[hash] = findings
	m.puts++
	return nil
}

func files(n int) []core.ChangedFile {
	out := make([]core.ChangedFile, n)
	for i := range out {
		out[i] = core.ChangedFile{Filename: fmt.Sprintf("f%d.go", i), Patch: "@@ -1 +1 @@\n+x"}
	}
	return out
}

func contentOf(_ context.Context, name string) (string, error) {
	return "content of " + name, nil
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	analyze := func(_ context.Context, f core.ChangedFile) ([]core.Finding, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return []core.Finding{{File: f.Filename}}, nil
	}

	s := New(analyze, contentOf, nil, WithLimit(3), WithMinDuration(0), WithLogger(quiet))
	results := s.Run(context.Background(), files(12))

	require.Len(t, results, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	findings, failed := Collect(results)
	assert.Len(t, findings, 12)
	assert.Empty(t, failed)
}

func TestRun_PacesEachUnit(t *testing.T) {
	analyze := func(context.Context, core.ChangedFile) ([]core.Finding, error) { return nil, nil }
	s := New(analyze, contentOf, nil, WithLimit(2), WithMinDuration(50*time.Millisecond), WithLogger(quiet))

	start := time.Now()
	s.Run(context.Background(), files(4))

	// Four instant units through two permits take at least two pacing windows.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestRun_CacheHitSkipsAnalyzer(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	in := files(2)
	cachedContent, _ := contentOf(ctx, in[0].Filename)
	store.data[cache.HashContent(cachedContent)] = []core.Finding{{File: in[0].Filename, Issue: "cached"}}

	var calls atomic.Int32
	analyze := func(_ context.Context, f core.ChangedFile) ([]core.Finding, error) {
		calls.Add(1)
		return []core.Finding{{File: f.Filename, Issue: "fresh"}}, nil
	}

	s := New(analyze, contentOf, store, WithMinDuration(0), WithLogger(quiet))
	results := s.Run(ctx, in)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, store.puts)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Filename] = r
	}
	assert.True(t, byName["f0.go"].Cached)
	assert.Equal(t, "cached", byName["f0.go"].Findings[0].Issue)
	assert.False(t, byName["f1.go"].Cached)
	assert.Equal(t, "fresh", byName["f1.go"].Findings[0].Issue)
}

func TestRun_FailureDoesNotAbortBatch(t *testing.T) {
	store := newMemStore()
	analyze := func(_ context.Context, f core.ChangedFile) ([]core.Finding, error) {
		if f.Filename == "f1.go" {
			return nil, errors.New("model unavailable")
		}
		return []core.Finding{{File: f.Filename}}, nil
	}

	s := New(analyze, contentOf, store, WithMinDuration(0), WithLogger(quiet))
	findings, failed := Collect(s.Run(context.Background(), files(3)))

	assert.Len(t, findings, 2)
	require.Len(t, failed, 1)
	assert.Equal(t, "f1.go", failed[0].Filename)
	assert.Equal(t, 2, store.puts, "failed units must not be cached")
}

func TestRun_ContentErrorDisablesCaching(t *testing.T) {
	store := newMemStore()
	analyze := func(_ context.Context, f core.ChangedFile) ([]core.Finding, error) {
		return []core.Finding{{File: f.Filename}}, nil
	}
	content := func(context.Context, string) (string, error) { return "", errors.New("gone") }

	s := New(analyze, content, store, WithMinDuration(0), WithLogger(quiet))
	findings, failed := Collect(s.Run(context.Background(), files(2)))

	assert.Len(t, findings, 2)
	assert.Empty(t, failed)
	assert.Zero(t, store.puts)
}

func TestRun_Empty(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Empty(t, s.Run(context.Background(), nil))
}

func TestRun_CacheHitUsesRequestedFilename(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	in := files(1)
	content, _ := contentOf(ctx, in[0].Filename)
	cached := []core.Finding{{File: "copy/elsewhere.go", Issue: "cached"}}
	store.data[cache.HashContent(content)] = cached

	analyze := func(context.Context, core.ChangedFile) ([]core.Finding, error) {
		t.Fatal("analyzer must not run on a cache hit")
		return nil, nil
	}

	results := New(analyze, contentOf, store, WithMinDuration(0), WithLogger(quiet)).Run(ctx, in)
	require.Len(t, results, 1)
	require.Len(t, results[0].Findings, 1)
	assert.Equal(t, in[0].Filename, results[0].Findings[0].File)
	assert.Equal(t, "copy/elsewhere.go", cached[0].File, "stored entry must not be modified")
}
