package repository

import (
	"fmt"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/service/query"
	"go.mongodb.org/mongo-driver/bson"
)

type recordDoc struct {
	Key               string `bson:"_id"`
	deployment.Record `bson:",inline"`
}

type mongoCache struct {
	q   query.Mongo
	key string
}

// NewMongoCache keeps the record as a single document, replaced whole on
// every save.
func NewMongoCache(q query.Mongo, key string) deployment.Cache {
	return &mongoCache{q, key}
}

func (mc *mongoCache) Location() string {
	return fmt.Sprintf("mongo:%s/%s", domain.TableDeployments, mc.key)
}

func (mc *mongoCache) Load(c ctx.Ctx) (*deployment.Record, error) {
	doc := recordDoc{}
	if err := mc.q.FindOne(c, domain.TableDeployments, bson.M{"_id": mc.key}, &doc); err == query.ErrNotFound {
		return nil, domain.ErrCacheMissing
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": mc.key,
		}).Error("q.FindOne failed")
		return nil, err
	}
	return &doc.Record, nil
}

func (mc *mongoCache) Save(c ctx.Ctx, r *deployment.Record) error {
	doc := recordDoc{Key: mc.key, Record: *r}
	if err := mc.q.Upsert(c, domain.TableDeployments, bson.M{"_id": mc.key}, doc); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"key": mc.key,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}
