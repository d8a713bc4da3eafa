package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/usecases"
)

// --- Mock StyleFetcher ---

type mockStyleFetcher struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, apiKey string) (domain.StyleDocument, error)
}

func (m *mockStyleFetcher) FetchStyle(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, apiKey)
	}
	return domain.StyleDocument{}, nil
}

func (m *mockStyleFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock CacheService ---

type mockCacheService struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCacheService {
	return &mockCacheService{data: map[string][]byte{}}
}

func (m *mockCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCacheService) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCacheService) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// entries returns a copy of the stored keys and values.
func (m *mockCacheService) entries() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// corruptAll overwrites every stored value with invalid JSON.
func (m *mockCacheService) corruptAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		m.data[k] = []byte("{")
	}
}

func mustStyleDoc(t *testing.T, raw string) domain.StyleDocument {
	t.Helper()
	doc, err := domain.ParseStyleDocument([]byte(raw))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// --- Fetch (synchronous pipeline) ---

func TestStyleService_Fetch_StripsSprite(t *testing.T) {
	doc := mustStyleDoc(t, `{"version":8,"sprite":"https://x/sprite","layers":[{"id":"bg"}]}`)
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return doc, nil
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	got, err := svc.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := got["sprite"]; ok {
		t.Error("sprite key must be removed")
	}
	if _, ok := got["layers"]; !ok {
		t.Error("layers key must pass through")
	}
	var version int
	if err := json.Unmarshal(got["version"], &version); err != nil || version != 8 {
		t.Errorf("version must pass through, got %s", got["version"])
	}
}

func TestStyleService_Fetch_PropagatesStatusError(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return nil, &domain.StyleStatusError{StatusCode: 401}
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	_, err := svc.Fetch(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *domain.StyleStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StyleStatusError, got %T", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("message must carry the status code, got %q", err.Error())
	}
}

func TestStyleService_Fetch_NoCachingByDefault(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return mustStyleDoc(t, `{"version":8}`), nil
		},
	}
	cache := newMockCache()

	// TTL 0 disables caching even with a cache injected.
	svc := usecases.NewStyleService(fetcher, cache, 0)
	svc.Fetch(context.Background(), "k")
	svc.Fetch(context.Background(), "k")

	if fetcher.callCount() != 2 {
		t.Errorf("expected 2 provider fetches, got %d", fetcher.callCount())
	}
	if cache.setCount() != 0 {
		t.Errorf("expected no cache writes, got %d", cache.setCount())
	}
}

func TestStyleService_Fetch_CachesSanitizedDocument(t *testing.T) {
	doc := mustStyleDoc(t, `{"version":8,"sprite":"https://x/sprite","layers":[]}`)
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return doc, nil
		},
	}
	cache := newMockCache()

	svc := usecases.NewStyleService(fetcher, cache, 300)

	first, err := svc.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.setCount() != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.setCount())
	}

	for key, value := range cache.entries() {
		if strings.Contains(string(value), "sprite") {
			t.Errorf("cached value must be sanitized, got %s under %s", value, key)
		}
	}

	second, err := svc.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("second fetch must be served from cache, provider called %d times", fetcher.callCount())
	}
	if _, ok := second["sprite"]; ok {
		t.Error("cached document must stay sanitized")
	}
	if len(first) != len(second) {
		t.Errorf("cache round-trip changed the document: %d vs %d keys", len(first), len(second))
	}
}

func TestStyleService_Fetch_CacheKeyDigestsAPIKey(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return mustStyleDoc(t, `{"version":8}`), nil
		},
	}
	cache := newMockCache()

	svc := usecases.NewStyleService(fetcher, cache, 300)
	if _, err := svc.Fetch(context.Background(), "secret-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := cache.entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(entries))
	}
	for key := range entries {
		if !strings.HasPrefix(key, "style:v1:") {
			t.Errorf("unexpected cache key prefix: %s", key)
		}
		if strings.Contains(key, "secret") {
			t.Errorf("raw API key leaked into cache key: %s", key)
		}
		if len(key) != len("style:v1:")+64 {
			t.Errorf("expected sha256 hex suffix, got %s", key)
		}
	}
}

func TestStyleService_Fetch_IgnoresCorruptCacheEntry(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return mustStyleDoc(t, `{"version":8}`), nil
		},
	}
	cache := newMockCache()

	svc := usecases.NewStyleService(fetcher, cache, 300)
	svc.Fetch(context.Background(), "k")
	cache.corruptAll()

	doc, err := svc.Fetch(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("corrupt entry must fall through to the provider, called %d times", fetcher.callCount())
	}
	if _, ok := doc["version"]; !ok {
		t.Error("expected refetched document")
	}
}

// --- Load (asynchronous handle) ---

func TestStyleService_Load_SettlesReady(t *testing.T) {
	doc := mustStyleDoc(t, `{"version":8,"sprite":"x"}`)
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return doc, nil
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	load := svc.Load(context.Background(), "k")

	if load.Token() == "" {
		t.Error("handle must carry a request token")
	}

	select {
	case <-load.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("load did not settle")
	}

	if got := load.State(); got != domain.StyleReady {
		t.Fatalf("expected ready, got %v", got)
	}
	doc, err := load.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc["sprite"]; ok {
		t.Error("loaded document must be sanitized")
	}
}

func TestStyleService_Load_SettlesFailed(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return nil, &domain.StyleStatusError{StatusCode: 401}
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	load := svc.Load(context.Background(), "bad")

	select {
	case <-load.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("load did not settle")
	}

	if got := load.State(); got != domain.StyleFailed {
		t.Fatalf("expected failed, got %v", got)
	}
	_, err := load.Result()
	if err == nil || err.Error() == "" {
		t.Fatal("failed load must expose a non-empty message")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("message must carry the status code, got %q", err.Error())
	}
}

func TestStyleService_Load_ConcurrentKeysIndependent(t *testing.T) {
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			raw, _ := json.Marshal(apiKey)
			return domain.StyleDocument{"key": raw}, nil
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	a := svc.Load(context.Background(), "key-a")
	b := svc.Load(context.Background(), "key-b")

	<-a.Done()
	<-b.Done()

	docA, errA := a.Result()
	docB, errB := b.Result()
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if string(docA["key"]) != `"key-a"` {
		t.Errorf("load a got result %s", docA["key"])
	}
	if string(docB["key"]) != `"key-b"` {
		t.Errorf("load b got result %s", docB["key"])
	}
	if a.Token() == b.Token() {
		t.Error("handles must carry distinct tokens")
	}
}

func TestStyleService_Load_DiscardSuppressesResult(t *testing.T) {
	doc := mustStyleDoc(t, `{"version":8}`)
	release := make(chan struct{})
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			<-release
			return doc, nil
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	load := svc.Load(context.Background(), "k")
	load.Discard()

	select {
	case <-load.Done():
	default:
		t.Fatal("Done must be closed immediately after Discard")
	}

	close(release)
	time.Sleep(50 * time.Millisecond) // let the settle attempt run

	if got := load.State(); got != domain.StyleLoading {
		t.Errorf("discarded handle must stay loading, got %v", got)
	}
	gotDoc, err := load.Result()
	if gotDoc != nil || err != nil {
		t.Errorf("discarded handle must expose no result, got (%v, %v)", gotDoc, err)
	}
}

func TestStyleService_Load_DiscardAfterSettleKeepsResult(t *testing.T) {
	doc := mustStyleDoc(t, `{"version":8}`)
	fetcher := &mockStyleFetcher{
		fetchFn: func(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
			return doc, nil
		},
	}

	svc := usecases.NewStyleService(fetcher, nil, 0)
	load := svc.Load(context.Background(), "k")
	<-load.Done()

	load.Discard()

	if got := load.State(); got != domain.StyleReady {
		t.Errorf("settled handle must keep its state, got %v", got)
	}
	doc, err := load.Result()
	if doc == nil || err != nil {
		t.Errorf("settled handle must keep its result, got (%v, %v)", doc, err)
	}
}
