package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gourl/asyncharness/internal/cache"
)

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// RedisStore keeps snapshots in Redis under prefix+identity, without expiry.
type RedisStore struct {
	cache  cache.Cache
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix defaults to
// "snapshot:".
func NewRedisStore(c cache.Cache, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "snapshot:"
	}
	return &RedisStore{cache: c, prefix: prefix}
}

func (s *RedisStore) Load(ctx context.Context, id string) (any, bool, error) {
	data, err := s.cache.Get(ctx, s.key(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	tree, err := Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("snapshot %q: %w", id, err)
	}
	return tree, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, tree any) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.key(id), data, 0)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.key(id))
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.cache.Keys(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, s.prefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
