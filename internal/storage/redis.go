package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/numguess/internal/domain"
)

const redisKeyPrefix = "numguess:profile:"

// RedisStore keeps each profile as a JSON string. A zero ttl keeps keys
// forever.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(id string) string { return redisKeyPrefix + strings.TrimSpace(id) }

func (s *RedisStore) Load(ctx context.Context, id string) (*domain.Profile, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewProfile(id, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get profile %s: %w", id, err)
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return Normalize(&p, id, s.now()), nil
}

func (s *RedisStore) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return ErrNilProfile
	}
	id, err := validateID(profile.ID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", id, err)
	}
	if err := s.rdb.Set(ctx, s.key(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile %s: %w", id, err)
	}
	return nil
}
