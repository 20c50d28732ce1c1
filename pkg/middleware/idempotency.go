package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// ScopeHeader namespaces idempotency keys so two tenants never share a replay.
	ScopeHeader    = "X-Tenant-ID"
	ReplayedHeader = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (c *CachedResponse) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.CreatedAt) > ttl
}

// InMemoryIdempotencyStore is used when Redis is not configured. Entries are
// dropped lazily on read and by a sweep every ttl.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*CachedResponse
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]*CachedResponse),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if cached.expired(s.ttl, time.Now()) {
		delete(s.entries, key)
		return nil, false
	}
	return cached, true
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	s.mu.Lock()
	s.entries[key] = response
	s.mu.Unlock()
}

func (s *InMemoryIdempotencyStore) sweep() {
	every := s.ttl
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.mu.Lock()
			for key, cached := range s.entries {
				if cached.expired(s.ttl, now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Idempotency replays the first successful response stored under the
// request's Idempotency-Key. Only 2xx responses are remembered, so a failed
// booking attempt can be retried with the same key.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = IdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := store.Get(r.Context(), key); ok {
				replay(w, cached)
				return
			}

			rec := &recorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			if status := rec.Status(); status >= 200 && status < 300 {
				store.Set(r.Context(), key, &CachedResponse{
					StatusCode: status,
					Headers:    w.Header().Clone(),
					Body:       rec.body.Bytes(),
				})
			}
		})
	}
}

// idempotencyKey is tenant:method:path:client-key, or "" when the client sent
// no key.
func idempotencyKey(r *http.Request, headerName string) string {
	clientKey := strings.TrimSpace(r.Header.Get(headerName))
	if clientKey == "" {
		return ""
	}
	return strings.Join([]string{r.Header.Get(ScopeHeader), r.Method, r.URL.Path, clientKey}, ":")
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
