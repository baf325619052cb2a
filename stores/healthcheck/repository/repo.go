package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/database/mongoclient"
	hcdomain "github.com/x-xyz/auctionproxy/domain/healthcheck"
	"github.com/x-xyz/auctionproxy/domain/keys"
	"github.com/x-xyz/auctionproxy/service/redis"
)

const pingTimeout = 2 * time.Second

type mongoPinger struct {
	client *mongoclient.Client
}

func NewMongo(client *mongoclient.Client) hcdomain.Pinger {
	return &mongoPinger{client}
}

func (p *mongoPinger) Name() string {
	return "mongo"
}

func (p *mongoPinger) Ping(c ctx.Ctx) error {
	cc, cancel := ctx.WithTimeout(c, pingTimeout)
	defer cancel()
	if err := p.client.Ping(cc, readpref.Primary()); err != nil {
		c.WithField("err", err).Error("ping mongo error")
		return err
	}
	return nil
}

type redisPinger struct {
	redis redis.Service
}

func NewRedis(r redis.Service) hcdomain.Pinger {
	return &redisPinger{r}
}

func (p *redisPinger) Name() string {
	return "redis"
}

func (p *redisPinger) Ping(c ctx.Ctx) error {
	cc, cancel := ctx.WithTimeout(c, pingTimeout)
	defer cancel()
	if err := p.redis.Set(cc, keys.RedisKey(keys.PfxHealthCheck, "testset"), []byte("1"), 30*time.Second); err != nil {
		c.WithField("err", err).Error("test redis set failed")
		return err
	}
	return nil
}
