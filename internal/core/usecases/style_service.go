package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/ports"
)

// styleCacheVersion namespaces cache keys; bump when the sanitization
// contract changes.
const styleCacheVersion = "v1"

// StyleService runs the style acquisition pipeline: fetch the document
// from the provider, parse it, strip the sprite key, hand it out.
// Caching is off unless a cache and a positive TTL are injected.
type StyleService struct {
	fetcher ports.StyleFetcher
	cache   ports.CacheService
	ttl     int // seconds
}

// NewStyleService creates a StyleService. cache may be nil and
// ttlSeconds <= 0 disables caching either way.
func NewStyleService(fetcher ports.StyleFetcher, cache ports.CacheService, ttlSeconds int) *StyleService {
	return &StyleService{fetcher: fetcher, cache: cache, ttl: ttlSeconds}
}

// Fetch runs the pipeline synchronously and returns the sanitized
// document. The cached value is the sanitized form, keyed by a digest
// of the API key so raw keys never reach the cache backend.
func (s *StyleService) Fetch(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
	key := styleCacheKey(apiKey)

	if s.cacheEnabled() {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var doc domain.StyleDocument
			if err := json.Unmarshal(data, &doc); err == nil {
				return doc, nil
			}
		}
	}

	doc, err := s.fetcher.FetchStyle(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	doc.StripSprite()

	if s.cacheEnabled() {
		if data, err := json.Marshal(doc); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}

	return doc, nil
}

// Load starts the pipeline in the background and returns its handle.
// Each call owns an independent handle; concurrent loads with
// different keys never cross results.
func (s *StyleService) Load(ctx context.Context, apiKey string) *StyleLoad {
	l := &StyleLoad{
		token: uuid.NewString(),
		state: domain.StyleLoading,
		done:  make(chan struct{}),
	}

	go func() {
		doc, err := s.Fetch(ctx, apiKey)
		l.settle(doc, err)
	}()

	return l
}

func (s *StyleService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func styleCacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "style:" + styleCacheVersion + ":" + hex.EncodeToString(sum[:])
}

// StyleLoad is the handle for one asynchronous style load. It settles
// exactly once, from Loading into Ready or Failed, and never changes
// state afterwards.
type StyleLoad struct {
	token string

	mu        sync.Mutex
	state     domain.StyleState
	doc       domain.StyleDocument
	err       error
	discarded bool
	done      chan struct{}
}

// Token identifies this request for logging and correlation.
func (l *StyleLoad) Token() string { return l.token }

// State returns the current lifecycle state. A discarded handle stays
// in StyleLoading forever.
func (l *StyleLoad) State() domain.StyleState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Result returns the settled document or error. While loading, and on
// a discarded handle, both are nil.
func (l *StyleLoad) Result() (domain.StyleDocument, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc, l.err
}

// Done is closed once the handle settles or is discarded.
func (l *StyleLoad) Done() <-chan struct{} {
	return l.done
}

// Discard abandons a pending load. The network call is not aborted,
// but its eventual result has no observable effect on this handle.
// Discarding an already settled handle keeps the settled result.
func (l *StyleLoad) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.discarded || l.state != domain.StyleLoading {
		return
	}
	l.discarded = true
	close(l.done)
}

func (l *StyleLoad) settle(doc domain.StyleDocument, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.discarded || l.state != domain.StyleLoading {
		return
	}
	if err != nil {
		l.state = domain.StyleFailed
		l.err = err
	} else {
		l.state = domain.StyleReady
		l.doc = doc
	}
	close(l.done)
}
