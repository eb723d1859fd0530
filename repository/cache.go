package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"omiit/metrics"
	"omiit/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const postsListKey = "posts:all"

// CachedPostStore caches the full post listing in Redis. Every mutation that
// goes through it drops the cached listing. Writes made inside a transaction
// only become visible on commit, so callers running one must Invalidate again
// afterwards. Redis failures degrade to the wrapped store.
type CachedPostStore struct {
	PostStore
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedPostStore wraps inner with a cache-aside listing. A nil client
// returns inner unchanged.
func NewCachedPostStore(inner PostStore, rdb *redis.Client, ttl time.Duration) PostStore {
	if rdb == nil {
		return inner
	}
	return &CachedPostStore{PostStore: inner, rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL or a bare host:port and pings it.
// An empty addr disables caching.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *CachedPostStore) FindAllWithComments(ctx context.Context) ([]models.Post, error) {
	raw, err := s.rdb.Get(ctx, postsListKey).Bytes()
	switch {
	case err == nil:
		var posts []models.Post
		if jsonErr := json.Unmarshal(raw, &posts); jsonErr == nil {
			metrics.CacheEvents.WithLabelValues("hit").Inc()
			return posts, nil
		}
		metrics.CacheEvents.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheEvents.WithLabelValues("miss").Inc()
	default:
		metrics.CacheEvents.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "posts cache read failed", "error", err)
	}

	posts, err := s.PostStore.FindAllWithComments(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(posts); err == nil {
		if err := s.rdb.Set(ctx, postsListKey, b, s.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "posts cache write failed", "error", err)
		}
	}
	return posts, nil
}

func (s *CachedPostStore) Create(ctx context.Context, post *models.Post) error {
	defer s.Invalidate(ctx)
	return s.PostStore.Create(ctx, post)
}

func (s *CachedPostStore) UpdateByID(ctx context.Context, id primitive.ObjectID, patch models.PostPatch, updatedAt int64) (*models.Post, error) {
	defer s.Invalidate(ctx)
	return s.PostStore.UpdateByID(ctx, id, patch, updatedAt)
}

func (s *CachedPostStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	defer s.Invalidate(ctx)
	return s.PostStore.DeleteByID(ctx, id)
}

// Invalidate drops the cached listing.
func (s *CachedPostStore) Invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, postsListKey).Err(); err != nil {
		slog.WarnContext(ctx, "posts cache invalidation failed", "error", err)
	}
}
