package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	goredis "github.com/redis/go-redis/v9"
)

const verdictKeyPrefix = "castket:verdict:"

type CachedVerdict struct {
	Safe   bool   `msgpack:"safe"`
	Judged bool   `msgpack:"judged"`
	Reason string `msgpack:"reason"`
}

// VerdictCacheRepo stores classifier verdicts keyed by content digest, with a
// small in-process LFU in front of redis.
type VerdictCacheRepo struct {
	data *cache.Cache
	ttl  time.Duration
}

func NewVerdictCacheRepo(client *goredis.Client, ttl time.Duration, localSize int) *VerdictCacheRepo {
	if client == nil {
		return &VerdictCacheRepo{ttl: ttl}
	}
	opts := &cache.Options{Redis: client}
	if localSize > 0 && ttl > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, ttl)
	}
	return &VerdictCacheRepo{
		data: cache.New(opts),
		ttl:  ttl,
	}
}

func (r *VerdictCacheRepo) Get(ctx context.Context, digest string) (CachedVerdict, bool, error) {
	if r.data == nil {
		return CachedVerdict{}, false, fmt.Errorf("redis client is nil")
	}
	var v CachedVerdict
	err := r.data.Get(ctx, verdictKeyPrefix+digest, &v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return CachedVerdict{}, false, nil
	}
	if err != nil {
		return CachedVerdict{}, false, fmt.Errorf("get cached verdict: %w", err)
	}
	return v, true, nil
}

func (r *VerdictCacheRepo) Set(ctx context.Context, digest string, v CachedVerdict) error {
	if r.data == nil {
		return fmt.Errorf("redis client is nil")
	}
	if r.ttl <= 0 {
		return nil
	}
	if err := r.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   verdictKeyPrefix + digest,
		Value: v,
		TTL:   r.ttl,
	}); err != nil {
		return fmt.Errorf("set cached verdict: %w", err)
	}
	return nil
}
