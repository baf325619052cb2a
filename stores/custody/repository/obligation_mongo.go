package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/service/query"
	"go.mongodb.org/mongo-driver/bson"
)

type obligationDoc struct {
	Id          string                 `bson:"_id"`
	Kind        custody.ObligationKind `bson:"kind"`
	AuctionId   *uint64                `bson:"auctionId,omitempty"`
	Beneficiary domain.Address         `bson:"beneficiary"`
	Amount      *string                `bson:"amount,omitempty"`
	Collection  *domain.Address        `bson:"collection,omitempty"`
	TokenId     *domain.TokenId        `bson:"tokenId,omitempty"`
	From        domain.Address         `bson:"from,omitempty"`
	CreatedAt   time.Time              `bson:"createdAt"`
	SettledAt   *time.Time             `bson:"settledAt"`
}

func toObligationDoc(o *custody.Obligation) *obligationDoc {
	d := &obligationDoc{
		Id:          o.Id,
		Kind:        o.Kind,
		AuctionId:   o.AuctionId,
		Beneficiary: o.Beneficiary.ToLower(),
		From:        o.From.ToLower(),
		CreatedAt:   o.CreatedAt.UTC(),
		SettledAt:   o.SettledAt,
	}
	if o.Amount != nil {
		amount := o.Amount.String()
		d.Amount = &amount
	}
	if o.Asset != nil {
		collection := o.Asset.Collection.ToLower()
		tokenId := o.Asset.TokenId
		d.Collection = &collection
		d.TokenId = &tokenId
	}
	return d
}

func (d *obligationDoc) toDomain() (*custody.Obligation, error) {
	o := &custody.Obligation{
		Id:          d.Id,
		Kind:        d.Kind,
		AuctionId:   d.AuctionId,
		Beneficiary: d.Beneficiary,
		From:        d.From,
		CreatedAt:   d.CreatedAt,
		SettledAt:   d.SettledAt,
	}
	if d.Amount != nil {
		amount, err := decimal.NewFromString(*d.Amount)
		if err != nil {
			return nil, err
		}
		o.Amount = &amount
	}
	if d.Collection != nil && d.TokenId != nil {
		o.Asset = &auction.AssetRef{Collection: *d.Collection, TokenId: *d.TokenId}
	}
	return o, nil
}

type obligationMongoImpl struct {
	q query.Mongo
}

func NewObligationMongo(q query.Mongo) custody.ObligationRepo {
	return &obligationMongoImpl{q}
}

func (im *obligationMongoImpl) Add(c ctx.Ctx, o *custody.Obligation) error {
	if err := im.q.Insert(c, domain.TableObligations, toObligationDoc(o)); err == query.ErrDuplicateKey {
		return domain.ErrAlreadyExists
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"obligation": o.Id,
		}).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *obligationMongoImpl) FindByAuction(c ctx.Ctx, auctionId uint64) ([]*custody.Obligation, error) {
	docs := []*obligationDoc{}
	if err := im.q.Search(c, domain.TableObligations, 0, 0, "createdAt", bson.M{"auctionId": auctionId}, &docs); err != nil {
		c.WithFields(log.Fields{
			"err":       err,
			"auctionId": auctionId,
		}).Error("q.Search failed")
		return nil, err
	}
	res := make([]*custody.Obligation, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			c.WithFields(log.Fields{
				"err":        err,
				"obligation": d.Id,
			}).Error("toDomain failed")
			return nil, err
		}
		res = append(res, o)
	}
	return res, nil
}

func (im *obligationMongoImpl) MarkSettled(c ctx.Ctx, id string) error {
	selector := bson.M{"_id": id, "settledAt": nil}
	if err := im.q.Patch(c, domain.TableObligations, selector, bson.M{"settledAt": time.Now().UTC()}); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":        err,
			"obligation": id,
		}).Error("q.Patch failed")
		return err
	}
	return nil
}
