package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/service/query"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"
)

const auctionSeq = "auctionId"

// auctionDoc keeps amounts as decimal strings so no precision is lost in
// storage.
type auctionDoc struct {
	Id              uint64          `bson:"id"`
	Seller          domain.Address  `bson:"seller"`
	Collection      domain.Address  `bson:"collection"`
	TokenId         domain.TokenId  `bson:"tokenId"`
	StartPrice      string          `bson:"startPrice"`
	Duration        int64           `bson:"duration"`
	StartTime       time.Time       `bson:"startTime"`
	HighestBid      *string         `bson:"highestBid"`
	HighestBidder   *domain.Address `bson:"highestBidder"`
	Ended           bool            `bson:"ended"`
	BidCurrencyMode int8            `bson:"bidCurrencyMode"`
	Schema          uint8           `bson:"schema"`
	HighestBidAmt   *string         `bson:"highestBidAmount"`
	Revision        uint64          `bson:"revision"`
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

func toDoc(a *auction.Auction) *auctionDoc {
	d := &auctionDoc{
		Id:              a.Id,
		Seller:          a.Seller.ToLower(),
		Collection:      a.Asset.Collection.ToLower(),
		TokenId:         a.Asset.TokenId,
		StartPrice:      a.StartPrice.String(),
		Duration:        int64(a.Duration),
		StartTime:       a.StartTime.UTC(),
		Ended:           a.Ended,
		BidCurrencyMode: int8(a.BidCurrencyMode),
		Schema:          a.Schema,
		Revision:        a.Revision,
	}
	if a.HighestBid != nil {
		bid := a.HighestBid.String()
		d.HighestBid = &bid
	}
	if a.HighestBidAmount != nil {
		amount := a.HighestBidAmount.String()
		d.HighestBidAmt = &amount
	}
	if a.HighestBidder != nil {
		bidder := a.HighestBidder.ToLower()
		d.HighestBidder = &bidder
	}
	return d
}

func (d *auctionDoc) toDomain() (*auction.Auction, error) {
	startPrice, err := decimal.NewFromString(d.StartPrice)
	if err != nil {
		return nil, xerrors.Errorf("auction %d startPrice: %w", d.Id, err)
	}
	a := &auction.Auction{
		LayoutV1: auction.LayoutV1{
			Id:            d.Id,
			Seller:        d.Seller,
			Asset:         auction.AssetRef{Collection: d.Collection, TokenId: d.TokenId},
			StartPrice:    startPrice,
			Duration:      time.Duration(d.Duration),
			StartTime:     d.StartTime,
			HighestBidder: d.HighestBidder,
			Ended:         d.Ended,
		},
		BidCurrencyMode: auction.CurrencyMode(d.BidCurrencyMode),
		Schema:          d.Schema,
		Revision:        d.Revision,
	}
	if d.HighestBid != nil {
		bid, err := decimal.NewFromString(*d.HighestBid)
		if err != nil {
			return nil, xerrors.Errorf("auction %d highestBid: %w", d.Id, err)
		}
		a.HighestBid = &bid
	}
	if d.HighestBidAmt != nil {
		amount, err := decimal.NewFromString(*d.HighestBidAmt)
		if err != nil {
			return nil, xerrors.Errorf("auction %d highestBidAmount: %w", d.Id, err)
		}
		a.HighestBidAmount = &amount
	}
	return a, nil
}

type mongoImpl struct {
	q query.Mongo
}

func NewMongo(q query.Mongo) auction.Repo {
	return &mongoImpl{q}
}

// EnsureIndexes lets the store refuse a second open auction of one asset
// even when two writers race past FindOpen.
func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	keys := bson.D{{Key: "collection", Value: 1}, {Key: "tokenId", Value: 1}}
	if err := q.EnsureUniqueIndex(c, domain.TableAuctions, keys, bson.M{"ended": false}); err != nil {
		c.WithField("err", err).Error("q.EnsureUniqueIndex failed")
		return err
	}
	return nil
}

func openSelector(asset auction.AssetRef) bson.M {
	return bson.M{
		"collection": asset.Collection.ToLower(),
		"tokenId":    asset.TokenId,
		"ended":      false,
	}
}

func (im *mongoImpl) nextId(c ctx.Ctx) (uint64, error) {
	res := counterDoc{}
	if err := im.q.Increment(c, domain.TableCounters, bson.M{"_id": auctionSeq}, &res, "seq", 1); err != nil {
		c.WithField("err", err).Error("q.Increment failed")
		return 0, err
	}
	// the first increment yields 1, ids start from 0
	return uint64(res.Seq - 1), nil
}

func (im *mongoImpl) Create(c ctx.Ctx, a *auction.Auction) (uint64, error) {
	if !a.Ended {
		if open, err := im.FindOpen(c, a.Asset); err == nil {
			return 0, xerrors.Errorf("%s open in auction %d: %w", a.Asset, open.Id, domain.ErrAlreadyExists)
		} else if err != domain.ErrNotFound {
			return 0, err
		}
	}

	id, err := im.nextId(c)
	if err != nil {
		return 0, err
	}
	rec := a.Clone()
	rec.Id = id
	rec.Revision = 1
	if err := im.q.Insert(c, domain.TableAuctions, toDoc(rec)); err == query.ErrDuplicateKey {
		return 0, xerrors.Errorf("%s open in another auction: %w", a.Asset, domain.ErrAlreadyExists)
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("q.Insert failed")
		return 0, err
	}
	return id, nil
}

func (im *mongoImpl) Get(c ctx.Ctx, id uint64) (*auction.Auction, error) {
	doc := auctionDoc{}
	if err := im.q.FindOne(c, domain.TableAuctions, bson.M{"id": id}, &doc); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("q.FindOne failed")
		return nil, err
	}
	return doc.toDomain()
}

func (im *mongoImpl) FindOpen(c ctx.Ctx, asset auction.AssetRef) (*auction.Auction, error) {
	doc := auctionDoc{}
	if err := im.q.FindOne(c, domain.TableAuctions, openSelector(asset), &doc); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"asset": asset.String(),
		}).Error("q.FindOne failed")
		return nil, err
	}
	return doc.toDomain()
}

func (im *mongoImpl) Update(c ctx.Ctx, id uint64, mutate auction.Mutation) (*auction.Auction, error) {
	cur, err := im.Get(c, id)
	if err != nil {
		return nil, err
	}
	seen := cur.Revision

	if err := mutate(cur); err != nil {
		return nil, err
	}
	cur.Id = id
	cur.Revision = seen + 1

	selector := bson.M{"id": id, "revision": seen}
	if err := im.q.Patch(c, domain.TableAuctions, selector, toDoc(cur)); err == query.ErrNotFound {
		// the record exists, so a miss means the revision moved on
		return nil, domain.ErrConflict
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"id":       id,
			"revision": seen,
		}).Error("q.Patch failed")
		return nil, err
	}
	return cur, nil
}
