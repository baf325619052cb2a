package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/keys"
	"github.com/x-xyz/auctionproxy/service/redis"
)

type redisLock struct {
	redis redis.Service
	ttl   time.Duration
}

// NewRedisLock serializes operators across processes. ttl bounds how long a
// crashed holder can block others.
func NewRedisLock(r redis.Service, ttl time.Duration) deployment.Lock {
	return &redisLock{r, ttl}
}

func (l *redisLock) TryLock(c ctx.Ctx, key string) (func(), error) {
	rkey := keys.RedisKey(keys.PfxUpgradeLock, key)
	token := []byte(uuid.NewString())

	ok, err := l.redis.SetNX(c, rkey, token, l.ttl)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": rkey,
		}).Error("redis.SetNX failed")
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUpgradeInProgress
	}

	return func() {
		// only release what is still ours, the ttl may have handed it over
		if _, err := l.redis.DelIfEqual(c, rkey, token); err != nil {
			c.WithFields(log.Fields{
				"err": err,
				"key": rkey,
			}).Error("redis.DelIfEqual failed")
		}
	}, nil
}
