package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultResponseTTL       = 5 * time.Minute
	defaultResponseCacheSize = 1024
)

// ResponseStore caches complete pipeline responses keyed by a request
// fingerprint. A miss returns (nil, nil).
type ResponseStore interface {
	Get(ctx context.Context, key string) (*CombinedResponse, error)
	Put(ctx context.Context, key string, resp *CombinedResponse) error
}

type memoryEntry struct {
	resp      CombinedResponse
	expiresAt time.Time
}

// MemoryResponseStore is the in-process default backend. It is a bounded LRU:
// request fingerprints rarely repeat across visitors, so without a size cap
// the store would grow with traffic. Eviction is always safe, it only means
// re-running the pipeline.
type MemoryResponseStore struct {
	lru *lru.Cache[string, memoryEntry]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryResponseStore(size int, ttl time.Duration) *MemoryResponseStore {
	if size <= 0 {
		size = defaultResponseCacheSize
	}
	if ttl <= 0 {
		ttl = defaultResponseTTL
	}
	cache, err := lru.New[string, memoryEntry](size)
	if err != nil {
		panic(fmt.Sprintf("pipeline: response cache size %d: %v", size, err))
	}
	return &MemoryResponseStore{
		lru: cache,
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryResponseStore) Get(_ context.Context, key string) (*CombinedResponse, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		s.lru.Remove(key)
		return nil, nil
	}
	resp := entry.resp
	return &resp, nil
}

func (s *MemoryResponseStore) Put(_ context.Context, key string, resp *CombinedResponse) error {
	s.lru.Add(key, memoryEntry{resp: *resp, expiresAt: s.now().Add(s.ttl)})
	return nil
}

// RedisResponseStore shares the response cache across instances.
type RedisResponseStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisResponseStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisResponseStore {
	if client == nil {
		panic("pipeline: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultResponseTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("persona.internal.pipeline.store")
	}
	return &RedisResponseStore{redis: client, ttl: ttl, tracer: tracer}
}

func (s *RedisResponseStore) Get(ctx context.Context, key string) (*CombinedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.load_response")
	defer span.End()

	data, err := s.redis.Get(ctx, responseKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("pipeline: failed to load cached response: %w", err)
	}

	var resp CombinedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("pipeline: failed to decode cached response: %w", err)
	}
	return &resp, nil
}

func (s *RedisResponseStore) Put(ctx context.Context, key string, resp *CombinedResponse) error {
	ctx, span := s.tracer.Start(ctx, "pipeline.save_response")
	defer span.End()

	data, err := json.Marshal(resp)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("pipeline: failed to marshal response: %w", err)
	}
	if err := s.redis.Set(ctx, responseKey(key), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("pipeline: failed to persist response: %w", err)
	}
	return nil
}

func responseKey(fingerprint string) string {
	return fmt.Sprintf("persona:response:%s", fingerprint)
}
