package retry

import (
	"context"
	"errors"
	"time"

	"medremind/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisClaimer implements Claimer on top of the shared Redis claim scripts.
// Each replica carries its own owner token so a claim can only be released
// by the replica that took it.
type RedisClaimer struct {
	rdb   *redis.Client
	owner string
}

func NewRedisClaimer(rdb *redis.Client) (*RedisClaimer, error) {
	if rdb == nil {
		return nil, errors.New("retry: redis client is required")
	}
	return &RedisClaimer{rdb: rdb, owner: NewClaimerID()}, nil
}

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return utils.ClaimDispatch(ctx, c.rdb, key, c.owner, ttl)
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	return utils.ReleaseDispatch(ctx, c.rdb, key, c.owner)
}
