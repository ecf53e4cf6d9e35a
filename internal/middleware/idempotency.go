package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// CachedResponse is a stored response replayed for a repeated idempotency key
type CachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// IdempotencyBackend claims idempotency keys and stores their responses.
//
// Acquire returns the cached response when one exists. Otherwise it tries to
// claim the key: acquired is true when the caller should run the request and
// then call Complete (or Release if nothing should be cached).
type IdempotencyBackend interface {
	Acquire(ctx context.Context, key string) (cached *CachedResponse, acquired bool, err error)
	Complete(ctx context.Context, key string, resp *CachedResponse) error
	Release(ctx context.Context, key string) error
}

// IdempotencyStore is the in-process backend. A repeated key waits for the
// in-flight request and then replays its response.
type IdempotencyStore struct {
	mu       sync.RWMutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
}

type idempotencyEntry struct {
	resp      *CachedResponse
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep idempotency results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a new in-memory idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	close(s.stopChan)
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if entry.expiresAt.Before(now) && !entry.inFlight {
			delete(s.entries, key)
		}
	}
}

// Acquire implements IdempotencyBackend
func (s *IdempotencyStore) Acquire(ctx context.Context, key string) (*CachedResponse, bool, error) {
	s.mu.Lock()
	entry, exists := s.entries[key]
	if exists && entry.inFlight {
		s.mu.Unlock()
		select {
		case <-entry.done:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}

		s.mu.RLock()
		defer s.mu.RUnlock()
		if done := s.entries[key]; done != nil && !done.inFlight && done.resp != nil {
			return done.resp, false, nil
		}
		return nil, false, nil
	}
	if exists && entry.expiresAt.After(time.Now()) {
		s.mu.Unlock()
		return entry.resp, false, nil
	}

	s.entries[key] = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
	s.mu.Unlock()
	return nil, true, nil
}

// Complete implements IdempotencyBackend
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	entry.resp = resp
	entry.expiresAt = time.Now().Add(s.ttl)
	entry.inFlight = false
	close(entry.done)
	return nil
}

// Release implements IdempotencyBackend
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if entry.inFlight {
		close(entry.done)
	}
	return nil
}

// generateKey creates a unique key from user ID, idempotency key, and request fingerprint
func generateKey(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(idempotencyKey))
	h.Write([]byte{0})
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *idempotencyResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func replay(w http.ResponseWriter, resp *CachedResponse) {
	for k, v := range resp.Header {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// Idempotency returns middleware that replays responses for repeated
// Idempotency-Key headers on POST and PATCH requests. Server errors are not
// cached so a retry runs the request again.
func Idempotency(backend IdempotencyBackend) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = clientIP(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := generateKey(userID, idempotencyKey, r.Method, r.URL.Path, body)

			cached, acquired, err := backend.Acquire(r.Context(), key)
			if err != nil {
				slog.Warn("idempotency store unavailable",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}
			if cached != nil {
				replay(w, cached)
				return
			}
			if !acquired {
				model.NewConflictError("a request with this Idempotency-Key is still in progress").WriteJSON(w)
				return
			}

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}

			completed := false
			defer func() {
				if !completed {
					_ = backend.Release(context.WithoutCancel(r.Context()), key)
				}
			}()

			next.ServeHTTP(irw, r)

			if irw.status >= http.StatusInternalServerError {
				return
			}
			resp := &CachedResponse{
				Status: irw.status,
				Header: irw.Header().Clone(),
				Body:   irw.body.Bytes(),
			}
			if err := backend.Complete(context.WithoutCancel(r.Context()), key, resp); err != nil {
				slog.Warn("failed to store idempotent response", slog.String("error", err.Error()))
				return
			}
			completed = true
		})
	}
}
