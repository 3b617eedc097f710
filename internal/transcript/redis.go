package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "support-chat:transcript:"

// RedisStore хранит журнал как список JSON-записей; TTL продлевается на каждой записи.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, e model.TranscriptEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, data)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string) ([]model.TranscriptEntry, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	out := make([]model.TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var e model.TranscriptEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode transcript entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
