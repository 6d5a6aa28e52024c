package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ogp-service/internal/ogp"
)

// ErrNotFound covers both a missing key and an unparseable stored value.
// Corrupt payloads are reported as absent so an expired-or-mangled record
// never breaks the read path; the corruption itself is logged.
var ErrNotFound = errors.New("metadata not found")

const keyPrefix = "ogp:"

// RedisStore keeps records as JSON strings under "ogp:<id>" with a
// per-key TTL, so expiry needs no sweeper.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Put overwrites any existing record at the same id. Last writer wins.
func (s *RedisStore) Put(ctx context.Context, id string, rec *ogp.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*ogp.Record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		s.logger.Warnw("corrupt metadata record treated as absent", "id", id, "error", err)
		return nil, ErrNotFound
	}
	return rec, nil
}

// Delete is idempotent; removing a missing id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

func decodeRecord(raw []byte) (*ogp.Record, error) {
	var rec ogp.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" || rec.Title == "" {
		return nil, errors.New("record missing required fields")
	}
	return &rec, nil
}
