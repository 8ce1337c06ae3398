package seen

import (
	"context"
	"fmt"

	"github.com/abdulachik/weibobot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the history in a Redis list under key.
type RedisStore struct {
	client *redis.Client
	key    string
	ids    *Set
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to the server at redisURL and checks it answers.
func OpenRedis(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, key), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key, ids: NewSet()}
}

// Load reads the list. A missing key is an empty history.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	s.ids = NewSet(ids...)
	return s.ids.Slice(), nil
}

// Contains reports whether id is recorded.
func (s *RedisStore) Contains(id string) bool {
	return s.ids.Has(normalizeID(id))
}

// Append pushes the new ids in one MULTI/EXEC transaction.
func (s *RedisStore) Append(ctx context.Context, ids ...string) error {
	fresh := s.ids.Missing(normalizeIDs(ids))
	if len(fresh) == 0 {
		return nil
	}

	values := make([]any, len(fresh))
	for i, id := range fresh {
		values[i] = id
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, values...)
		return nil
	})
	if err != nil {
		return &domain.StorageWriteError{Location: s.Location(), Err: err}
	}

	for _, id := range fresh {
		s.ids.Add(id)
	}
	return nil
}

// Len returns the number of recorded ids.
func (s *RedisStore) Len() int { return s.ids.Len() }

// Location returns the redis key.
func (s *RedisStore) Location() string { return "redis:" + s.key }

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }
