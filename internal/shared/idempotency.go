package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

// IdempotencyHeader is the request header clients send to make a POST safe
// to retry.
const IdempotencyHeader = "Idempotency-Key"

// ErrIdempotencyConflict indicates the key was already claimed.
var ErrIdempotencyConflict = fmt.Errorf("idempotent request already processed: %w", httpx.ErrConflict)

// IdempotencyStore records claimed request keys in Redis.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store. Keys expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim marks key as processed for scope. A second claim within the TTL
// returns ErrIdempotencyConflict.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) error {
	if s == nil || s.client == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	ok, err := s.client.SetNX(ctx, s.redisKey(scope, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim idempotency key: %w", err)
	}
	if !ok {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release drops a claim so that a failed request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, s.redisKey(scope, key)).Err()
}

func (s *IdempotencyStore) redisKey(scope, key string) string {
	return "sitecost:idem:" + scope + ":" + key
}

// IdempotentRequests guards POST requests that carry IdempotencyHeader: a
// replayed key answers 409 instead of creating a second record. Requests that
// fail release their key. Redis errors let the request through.
func IdempotentRequests(store *IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if r.Method != http.MethodPost || key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			scope := r.URL.Path
			if err := store.Claim(r.Context(), scope, key); err != nil {
				if errors.Is(err, ErrIdempotencyConflict) {
					httpx.Problem(w, http.StatusConflict, "Duplicate Request", "a request with this "+IdempotencyHeader+" was already processed")
					return
				}
				logger.Warn("idempotency claim failed", slog.String("path", scope), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				if err := store.Release(context.WithoutCancel(r.Context()), scope, key); err != nil {
					logger.Warn("idempotency release failed", slog.String("path", scope), slog.Any("error", err))
				}
			}
		})
	}
}
