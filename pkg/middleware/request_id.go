package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key for request ID
	RequestIDContextKey = "request_id"
)

type requestIDKey struct{}

var ErrRequestIDNotFound = errors.New("request ID not found")

// CachedResponse is a stored response replayed for a repeated request ID
type CachedResponse struct {
	Status int
	Body   []byte
}

// RequestIDStore remembers which request IDs were processed
type RequestIDStore interface {
	// Reserve marks requestID as in flight. It returns false when the ID is
	// already in flight or completed.
	Reserve(ctx context.Context, requestID string, ttl time.Duration) (bool, error)
	// Complete stores the response for requestID
	Complete(ctx context.Context, requestID string, resp CachedResponse, ttl time.Duration) error
	// Release forgets an in-flight ID so the client can retry it
	Release(ctx context.Context, requestID string) error
	// Get returns the stored response, or nil while the ID is still in flight
	Get(ctx context.Context, requestID string) (*CachedResponse, error)
}

// InMemoryRequestIDStore is an in-memory implementation of RequestIDStore
type InMemoryRequestIDStore struct {
	mu      sync.Mutex
	store   map[string]requestIDEntry
	cleanup *time.Ticker
	done    chan struct{}
	now     func() time.Time
}

type requestIDEntry struct {
	response  *CachedResponse
	expiresAt time.Time
}

// NewInMemoryRequestIDStore creates the store and starts a cleanup loop;
// call Close to stop it.
func NewInMemoryRequestIDStore() *InMemoryRequestIDStore {
	s := &InMemoryRequestIDStore{
		store:   make(map[string]requestIDEntry),
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.cleanupExpired()
	return s
}

func (s *InMemoryRequestIDStore) Reserve(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.store[requestID]; exists && s.now().Before(entry.expiresAt) {
		return false, nil
	}
	s.store[requestID] = requestIDEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *InMemoryRequestIDStore) Complete(ctx context.Context, requestID string, resp CachedResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[requestID] = requestIDEntry{response: &resp, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryRequestIDStore) Release(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.store[requestID]; exists && entry.response == nil {
		delete(s.store, requestID)
	}
	return nil
}

func (s *InMemoryRequestIDStore) Get(ctx context.Context, requestID string) (*CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.store[requestID]
	if !exists {
		return nil, ErrRequestIDNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.store, requestID)
		return nil, ErrRequestIDNotFound
	}
	return entry.response, nil
}

func (s *InMemoryRequestIDStore) Close() {
	s.cleanup.Stop()
	close(s.done)
}

func (s *InMemoryRequestIDStore) cleanupExpired() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanup.C:
			s.mu.Lock()
			now := s.now()
			for id, entry := range s.store {
				if now.After(entry.expiresAt) {
					delete(s.store, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RequestIDMiddleware extracts or generates X-Request-ID header
func RequestIDMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			logger.Debug("Generated new request ID",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}

		c.Set(RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// WithRequestID returns a copy of ctx carrying requestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext retrieves the request ID from a request context
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// IdempotencyMiddleware makes write requests carrying a client supplied
// X-Request-ID run at most once. A repeat of a completed request gets the
// stored response; a repeat while the first is still running gets 409.
// Only 2xx responses are kept, so a failed request may be retried with the
// same ID.
func IdempotencyMiddleware(store RequestIDStore, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) || c.GetHeader(RequestIDHeader) == "" {
			c.Next()
			return
		}

		requestID := GetRequestID(c)
		ctx := c.Request.Context()

		reserved, err := store.Reserve(ctx, requestID, ttl)
		if err != nil {
			logger.Warn("Error reserving request ID, continuing without idempotency",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !reserved {
			cached, err := store.Get(ctx, requestID)
			if err == nil && cached != nil {
				logger.Info("Duplicate request detected, returning cached response",
					zap.String("request_id", requestID),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}

			stdErr := apperrors.NewStandardError("Conflict",
				"a request with this X-Request-ID is already being processed", "X-Request-ID: "+requestID)
			c.AbortWithStatusJSON(stdErr.HTTPStatus(), stdErr)
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		stored := false
		// Also runs when a handler panics, so the ID does not stay reserved
		defer func() {
			if stored {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), requestID); err != nil {
				logger.Warn("Failed to release request ID", zap.String("request_id", requestID), zap.Error(err))
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 && len(writer.body) > 0 {
			resp := CachedResponse{Status: status, Body: writer.body}
			if err := store.Complete(context.WithoutCancel(ctx), requestID, resp, ttl); err != nil {
				logger.Warn("Failed to store response for idempotency",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
				return
			}
			stored = true
		}
	}
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
