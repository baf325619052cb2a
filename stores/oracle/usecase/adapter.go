package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/base/metrics"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/oracle"
	"golang.org/x/xerrors"
)

const DefaultMaxAge = time.Hour

var met = metrics.New("oracle")

type AdapterCfg struct {
	Reader oracle.FeedReader
	// MaxAge is how old a round may be before it counts as stale
	MaxAge time.Duration
	Now    func() time.Time
}

type impl struct {
	reader oracle.FeedReader
	maxAge time.Duration
	now    func() time.Time
}

func New(cfg *AdapterCfg) oracle.Adapter {
	im := &impl{
		reader: cfg.Reader,
		maxAge: cfg.MaxAge,
		now:    cfg.Now,
	}
	if im.maxAge <= 0 {
		im.maxAge = DefaultMaxAge
	}
	if im.now == nil {
		im.now = time.Now
	}
	return im
}

// Convert values amount native units at the latest answer of feed.
func (im *impl) Convert(c ctx.Ctx, feed domain.Address, amount decimal.Decimal) (decimal.Decimal, error) {
	if feed.IsEmpty() {
		return decimal.Zero, xerrors.Errorf("no price feed: %w", domain.ErrOracleUnavailable)
	}

	round, err := im.reader.LatestRound(c, feed)
	if err != nil {
		met.BumpSum("convert.err", 1, "reason", "read")
		c.WithFields(log.Fields{
			"err":  err,
			"feed": feed,
		}).Error("reader.LatestRound failed")
		return decimal.Zero, xerrors.Errorf("feed %s: %v: %w", feed, err, domain.ErrOracleUnavailable)
	}

	if !round.Answer.IsPositive() {
		met.BumpSum("convert.err", 1, "reason", "nonPositive")
		return decimal.Zero, xerrors.Errorf("feed %s answered %s: %w", feed, round.Answer, domain.ErrOracleUnavailable)
	}
	if age := im.now().Sub(round.UpdatedAt); age > im.maxAge {
		met.BumpSum("convert.err", 1, "reason", "stale")
		return decimal.Zero, xerrors.Errorf("feed %s round is %s old: %w", feed, age.Truncate(time.Second), domain.ErrOracleUnavailable)
	}

	return amount.Mul(round.Answer), nil
}
