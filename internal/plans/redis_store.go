package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "rtplan:"

// RedisStore is a Store backed by Redis. Plans are stored as JSON under
// <prefix>plan:<id>; the set <prefix>plans indexes them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires stored plans after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id PlanID) string {
	return s.prefix + "plan:" + string(id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "plans"
}

// GetPlan implements Store.GetPlan.
func (s *RedisStore) GetPlan(ctx context.Context, id PlanID) (*StoredPlan, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get plan %s: %w", id, err)
	}
	var p StoredPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("unmarshal plan %s: %w", id, err)
	}
	return &p, true, nil
}

// SetPlan implements Store.SetPlan.
func (s *RedisStore) SetPlan(ctx context.Context, p *StoredPlan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", p.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(p.ID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), string(p.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save plan %s: %w", p.ID, err)
	}
	return nil
}

// DeletePlan implements Store.DeletePlan.
func (s *RedisStore) DeletePlan(ctx context.Context, id PlanID) (bool, error) {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.indexKey(), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete plan %s: %w", id, err)
	}
	return del.Val() > 0, nil
}

// ListPlanIDs implements Store.ListPlanIDs. Index entries whose plan has
// expired are dropped from the result and from the index.
func (s *RedisStore) ListPlanIDs(ctx context.Context) ([]PlanID, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	ids := make([]PlanID, 0, len(members))
	for _, m := range members {
		n, err := s.client.Exists(ctx, s.key(PlanID(m))).Result()
		if err != nil {
			return nil, fmt.Errorf("list plans: %w", err)
		}
		if n == 0 {
			s.client.SRem(ctx, s.indexKey(), m)
			continue
		}
		ids = append(ids, PlanID(m))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
