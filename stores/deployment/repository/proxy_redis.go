package repository

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/keys"
	"github.com/x-xyz/auctionproxy/service/redis"
)

// proxy state lives in one hash per proxy, one field per slot
const (
	fieldImplementation = "implementation"
	fieldAdmin          = "admin"
	fieldOracleFeed     = "oracleFeed"
)

type proxyRedisImpl struct {
	redis redis.Service
}

func NewProxyRedis(r redis.Service) deployment.ProxyStore {
	return &proxyRedisImpl{r}
}

func proxyKey(proxy domain.Address) string {
	return keys.RedisKey(keys.PfxProxy, proxy.ToLowerStr())
}

func (im *proxyRedisImpl) Init(c ctx.Ctx, proxy domain.Address, state deployment.ProxyState) error {
	key := proxyKey(proxy)
	// the implementation slot is claimed first, whoever sets it owns the proxy
	ok, err := im.redis.HSetNX(c, key, fieldImplementation, []byte(state.Implementation.ToLowerStr()), redis.Forever)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": key,
		}).Error("redis.HSetNX failed")
		return err
	}
	if !ok {
		return domain.ErrAlreadyDeployed
	}
	if err := im.redis.HSet(c, key, fieldAdmin, []byte(state.Admin.ToLowerStr()), redis.Forever); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": key,
		}).Error("redis.HSet failed")
		return err
	}
	if state.OracleFeed != nil {
		return im.SetFeed(c, proxy, *state.OracleFeed)
	}
	return nil
}

func (im *proxyRedisImpl) Get(c ctx.Ctx, proxy domain.Address) (*deployment.ProxyState, error) {
	key := proxyKey(proxy)
	fields, err := im.redis.HGetAll(c, key)
	if err == redis.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": key,
		}).Error("redis.HGetAll failed")
		return nil, err
	}

	s := &deployment.ProxyState{
		Implementation: domain.Address(fields[fieldImplementation]),
		Admin:          domain.Address(fields[fieldAdmin]),
	}
	if feed, ok := fields[fieldOracleFeed]; ok {
		addr := domain.Address(feed)
		s.OracleFeed = &addr
	}
	return s, nil
}

func (im *proxyRedisImpl) set(c ctx.Ctx, proxy domain.Address, field string, val domain.Address) error {
	key := proxyKey(proxy)
	if ok, err := im.redis.Exists(c, key); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": key,
		}).Error("redis.Exists failed")
		return err
	} else if !ok {
		return domain.ErrNotFound
	}
	if err := im.redis.HSet(c, key, field, []byte(val.ToLowerStr()), redis.Forever); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"key":   key,
			"field": field,
		}).Error("redis.HSet failed")
		return err
	}
	return nil
}

func (im *proxyRedisImpl) SetImplementation(c ctx.Ctx, proxy, impl domain.Address) error {
	return im.set(c, proxy, fieldImplementation, impl)
}

func (im *proxyRedisImpl) SetFeed(c ctx.Ctx, proxy, feed domain.Address) error {
	return im.set(c, proxy, fieldOracleFeed, feed)
}
