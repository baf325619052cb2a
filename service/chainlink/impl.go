package chainlink

import (
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/abi"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/keys"
	"github.com/x-xyz/auctionproxy/domain/oracle"
	"github.com/x-xyz/auctionproxy/service/cache"
	"github.com/x-xyz/auctionproxy/service/cache/provider"
	"github.com/x-xyz/auctionproxy/service/chain"
	"golang.org/x/xerrors"
)

// feed decimals never change, the round does
const decimalsTtl = 24 * time.Hour

type round struct {
	Answer    string `json:"answer"`
	UpdatedAt int64  `json:"updatedAt"`
}

type feedDecimals struct {
	Decimals int32 `json:"decimals"`
}

type impl struct {
	chainClient chain.Client
	chainId     domain.ChainId
	rounds      cache.Service
	decimals    cache.Service
}

// New reads feeds on chainId. Rounds are cached for roundTtl in p.
func New(chainClient chain.Client, chainId domain.ChainId, p provider.Provider, roundTtl time.Duration) Chainlink {
	return &impl{
		chainClient: chainClient,
		chainId:     chainId,
		rounds: cache.New(cache.ServiceConfig{
			Ttl:   roundTtl,
			Pfx:   keys.PfxPriceRound,
			Cache: p,
		}),
		decimals: cache.New(cache.ServiceConfig{
			Ttl:   decimalsTtl,
			Pfx:   keys.RedisKey(keys.PfxPriceRound, "decimals"),
			Cache: p,
		}),
	}
}

func (im *impl) key(feed domain.Address) string {
	return keys.RedisKey(strconv.Itoa(int(im.chainId)), feed.ToLowerStr())
}

func (im *impl) LatestRound(c ctx.Ctx, feed domain.Address) (*oracle.Round, error) {
	c = ctx.WithLogFields(c, log.Fields{"chainId": im.chainId, "feed": feed})

	dec := feedDecimals{}
	if err := im.decimals.GetByFunc(c, im.key(feed), &dec, func() (interface{}, error) {
		return im.getDecimals(c, feed)
	}); err != nil {
		c.WithField("err", err).Error("get feed decimals failed")
		return nil, err
	}

	r := round{}
	if err := im.rounds.GetByFunc(c, im.key(feed), &r, func() (interface{}, error) {
		return im.getLatestRound(c, feed)
	}); err != nil {
		c.WithField("err", err).Error("get latest round failed")
		return nil, err
	}

	answer, err := decimal.NewFromString(r.Answer)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "answer": r.Answer}).Error("decimal.NewFromString failed")
		return nil, err
	}

	return &oracle.Round{
		Answer:    answer.Shift(-dec.Decimals),
		UpdatedAt: time.Unix(r.UpdatedAt, 0),
	}, nil
}

func (im *impl) getDecimals(c ctx.Ctx, feed domain.Address) (*feedDecimals, error) {
	res, err := im.chainClient.Call(c, im.chainId, feed.Common(), nil, abi.ChainlinkFeedABI, "decimals")
	if err != nil {
		return nil, err
	}
	d, ok := res[0].(uint8)
	if !ok {
		return nil, xerrors.Errorf("unexpected decimals type %T", res[0])
	}
	return &feedDecimals{Decimals: int32(d)}, nil
}

func (im *impl) getLatestRound(c ctx.Ctx, feed domain.Address) (*round, error) {
	res, err := im.chainClient.Call(c, im.chainId, feed.Common(), nil, abi.ChainlinkFeedABI, "latestRoundData")
	if err != nil {
		return nil, err
	}

	data := abi.LatestRoundData{}
	if err := abi.ChainlinkFeedABI.Methods["latestRoundData"].Outputs.Copy(&data, res); err != nil {
		c.WithField("err", err).Error("decode latestRoundData failed")
		return nil, err
	}

	return &round{
		Answer:    data.Answer.String(),
		UpdatedAt: toUnix(data.UpdatedAt),
	}, nil
}

func toUnix(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}
