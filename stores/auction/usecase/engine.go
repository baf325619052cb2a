package usecase

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/backoff"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/base/metrics"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/oracle"
	"golang.org/x/xerrors"
)

const (
	DefaultMaxRetries   = 5
	DefaultBackoffStart = 5 * time.Millisecond
	DefaultBackoffLimit = 100 * time.Millisecond
)

var met = metrics.New("auction")

type EngineCfg struct {
	// Proxy is the address the logic runs behind. It is the custody operator
	// and the key of the proxy settings.
	Proxy       domain.Address
	Repo        auction.Repo
	Custodian   custody.Custodian
	Obligations custody.ObligationRepo

	// V2 only
	ProxyStore deployment.ProxyStore
	Oracle     oracle.Adapter

	MaxRetries   int
	BackoffStart time.Duration
	BackoffLimit time.Duration
}

type engine struct {
	version     string
	schema      uint8
	oracle      bool
	proxy       domain.Address
	repo        auction.Repo
	custodian   custody.Custodian
	obligations custody.ObligationRepo
	proxyStore  deployment.ProxyStore
	adapter     oracle.Adapter

	maxRetries   int
	backoffStart time.Duration
	backoffLimit time.Duration
}

// NewV1 builds the first implementation, native bids only.
func NewV1(cfg *EngineCfg) auction.Logic {
	return newEngine(cfg, "V1", auction.SchemaV1, false)
}

// NewV2 adds oracle denominated bids on top of V1.
func NewV2(cfg *EngineCfg) auction.Logic {
	return newEngine(cfg, "V2", auction.SchemaV2, true)
}

func newEngine(cfg *EngineCfg, version string, schema uint8, withOracle bool) *engine {
	e := &engine{
		version:      version,
		schema:       schema,
		oracle:       withOracle,
		proxy:        cfg.Proxy,
		repo:         cfg.Repo,
		custodian:    cfg.Custodian,
		obligations:  cfg.Obligations,
		proxyStore:   cfg.ProxyStore,
		adapter:      cfg.Oracle,
		maxRetries:   cfg.MaxRetries,
		backoffStart: cfg.BackoffStart,
		backoffLimit: cfg.BackoffLimit,
	}
	if e.maxRetries <= 0 {
		e.maxRetries = DefaultMaxRetries
	}
	if e.backoffStart <= 0 {
		e.backoffStart = DefaultBackoffStart
	}
	if e.backoffLimit <= 0 {
		e.backoffLimit = DefaultBackoffLimit
	}
	return e
}

func (e *engine) SupportsOracle() bool {
	return e.oracle
}

func (e *engine) CreateAuction(c ctx.Ctx, p auction.CreateParams) (*auction.Auction, error) {
	c = ctx.WithLogFields(c, log.Fields{"version": e.version, "asset": p.Asset.String()})

	if p.Duration <= 0 || !p.StartPrice.IsPositive() {
		met.BumpSum("auction.rejected", 1, "reason", "invalidParameters")
		return nil, xerrors.Errorf("duration %s startPrice %s: %w", p.Duration, p.StartPrice, domain.ErrInvalidParameters)
	}
	if p.Seller.IsEmpty() || p.Asset.Collection.IsEmpty() || p.Asset.TokenId == "" {
		met.BumpSum("auction.rejected", 1, "reason", "invalidParameters")
		return nil, xerrors.Errorf("seller %q asset %q: %w", p.Seller, p.Asset, domain.ErrInvalidParameters)
	}

	// a pending custody transfer leaves ownerOf unchanged, the ledger is the
	// record of what the proxy holds
	if open, err := e.repo.FindOpen(c, p.Asset); err == nil {
		met.BumpSum("auction.rejected", 1, "reason", "alreadyListed")
		return nil, xerrors.Errorf("%s listed in auction %d: %w", p.Asset, open.Id, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.WithField("err", err).Error("repo.FindOpen failed")
		return nil, err
	}

	ok, err := e.custodian.HasApproval(c, p.Asset, p.Seller, e.proxy)
	if err != nil {
		c.WithField("err", err).Error("custodian.HasApproval failed")
		return nil, err
	}
	if !ok {
		met.BumpSum("auction.rejected", 1, "reason", "custodyNotGranted")
		return nil, xerrors.Errorf("%s not approved for %s: %w", e.proxy, p.Asset, domain.ErrCustodyNotGranted)
	}

	if err := e.custodian.TransferCustody(c, p.Asset, p.Seller, e.proxy); err != nil {
		c.WithField("err", err).Error("custodian.TransferCustody failed")
		return nil, err
	}

	a := &auction.Auction{
		LayoutV1: auction.LayoutV1{
			Seller:     p.Seller,
			Asset:      p.Asset,
			StartPrice: p.StartPrice,
			Duration:   p.Duration,
			StartTime:  time.Now().UTC(),
		},
		Schema: e.schema,
	}
	id, err := e.repo.Create(c, a)
	if err != nil {
		c.WithField("err", err).Error("repo.Create failed")
		// hand the asset back, nothing references it
		if rerr := e.custodian.TransferCustody(c, p.Asset, e.proxy, p.Seller); rerr != nil {
			c.WithField("err", rerr).Error("custodian.TransferCustody back failed")
		}
		return nil, err
	}

	created, err := e.repo.Get(c, id)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("repo.Get failed")
		return nil, err
	}
	met.BumpSum("auction.created", 1, "version", e.version)
	return created, nil
}

// comparisonValue is what a bid is ranked by.
func (e *engine) comparisonValue(c ctx.Ctx, p auction.BidParams) (decimal.Decimal, error) {
	switch p.Currency {
	case auction.CurrencyNative:
		return p.Amount, nil
	case auction.CurrencyOracle:
	default:
		return decimal.Zero, xerrors.Errorf("currency %s: %w", p.Currency, domain.ErrInvalidParameters)
	}

	if !e.oracle {
		return decimal.Zero, xerrors.Errorf("%s has no oracle bidding: %w", e.version, domain.ErrOracleUnavailable)
	}
	state, err := e.proxyStore.Get(c, e.proxy)
	if err != nil {
		c.WithField("err", err).Error("proxyStore.Get failed")
		return decimal.Zero, xerrors.Errorf("proxy %s: %v: %w", e.proxy, err, domain.ErrOracleUnavailable)
	}
	if state.OracleFeed == nil || state.OracleFeed.IsEmpty() {
		return decimal.Zero, xerrors.Errorf("no price feed configured: %w", domain.ErrOracleUnavailable)
	}

	value, err := e.adapter.Convert(c, *state.OracleFeed, p.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrOracleUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, xerrors.Errorf("feed %s: %v: %w", *state.OracleFeed, err, domain.ErrOracleUnavailable)
	}
	return value, nil
}

// update runs mutate through the ledger compare-and-swap, retrying conflicts.
func (e *engine) update(c ctx.Ctx, id uint64, mutate auction.Mutation) (*auction.Auction, error) {
	var updated *auction.Auction
	b := backoff.NewExponential(e.backoffStart, e.backoffLimit)
	err := backoff.Retry(c, b, e.maxRetries, func(attempt int) (bool, error) {
		a, err := e.repo.Update(c, id, mutate)
		if err == domain.ErrConflict {
			met.BumpSum("update.conflict", 1, "version", e.version)
			return true, err
		}
		updated = a
		return false, err
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, backoff.ErrExhausted):
		return nil, xerrors.Errorf("auction %d after %d attempts: %w", id, e.maxRetries, domain.ErrContention)
	case err == domain.ErrNotFound:
		return nil, xerrors.Errorf("auction %d: %w", id, domain.ErrAuctionNotFound)
	default:
		return nil, err
	}
}

func (e *engine) Bid(c ctx.Ctx, p auction.BidParams) (*auction.Auction, error) {
	c = ctx.WithLogFields(c, log.Fields{"version": e.version, "auctionId": p.AuctionId, "bidder": p.Bidder})

	if p.Bidder.IsEmpty() {
		return nil, xerrors.Errorf("empty bidder: %w", domain.ErrInvalidParameters)
	}

	cur, err := e.Auction(c, p.AuctionId)
	if err != nil {
		return nil, err
	}
	if cur.Ended {
		met.BumpSum("bid.rejected", 1, "reason", "ended")
		return nil, xerrors.Errorf("auction %d: %w", p.AuctionId, domain.ErrAuctionEnded)
	}

	value, err := e.comparisonValue(c, p)
	if err != nil {
		met.BumpSum("bid.rejected", 1, "reason", "oracle")
		return nil, err
	}

	var (
		prevBidder *domain.Address
		prevAmount decimal.Decimal
	)
	mutate := func(a *auction.Auction) error {
		if a.Ended {
			return xerrors.Errorf("auction %d: %w", a.Id, domain.ErrAuctionEnded)
		}
		if threshold := a.Threshold(); !value.GreaterThan(threshold) {
			return xerrors.Errorf("auction %d: bid %s not above %s: %w", a.Id, value, threshold, domain.ErrBidTooLow)
		}

		prevBidder, prevAmount = nil, decimal.Zero
		if paid, ok := a.Escrowed(); ok {
			prevBidder = a.HighestBidder
			prevAmount = paid
		}

		bid, amount, bidder := value, p.Amount, p.Bidder
		a.HighestBid = &bid
		a.HighestBidder = &bidder
		a.BidCurrencyMode = p.Currency
		if e.schema >= auction.SchemaV2 {
			a.HighestBidAmount = &amount
		} else {
			a.HighestBidAmount = nil
		}
		a.Schema = e.schema
		return nil
	}

	updated, err := e.update(c, p.AuctionId, mutate)
	if err != nil {
		met.BumpSum("bid.rejected", 1, "reason", rejectReason(err))
		return nil, err
	}
	met.BumpSum("bid.accepted", 1, "version", e.version, "currency", p.Currency.String())

	if prevBidder != nil {
		refund := custody.NewRefund(p.AuctionId, *prevBidder, prevAmount)
		if err := e.obligations.Add(c, refund); err != nil {
			// the bid stands, the refund has to be reconciled by hand
			met.BumpSum("obligation.err", 1, "kind", string(custody.ObligationRefund))
			c.WithFields(log.Fields{
				"err":         err,
				"beneficiary": *prevBidder,
				"amount":      prevAmount,
			}).Error("obligations.Add refund failed")
		}
	}
	return updated, nil
}

// End may be called by anyone, the outcome does not depend on the caller.
func (e *engine) End(c ctx.Ctx, caller domain.Address, id uint64) (*auction.Auction, error) {
	c = ctx.WithLogFields(c, log.Fields{"version": e.version, "auctionId": id, "caller": caller})

	ended, err := e.update(c, id, func(a *auction.Auction) error {
		if a.Ended {
			return xerrors.Errorf("auction %d: %w", a.Id, domain.ErrAuctionEnded)
		}
		a.Ended = true
		a.Schema = e.schema
		return nil
	})
	if err != nil {
		met.BumpSum("end.rejected", 1, "reason", rejectReason(err))
		return nil, err
	}

	e.settle(custody.WithAuction(c, id), ended)
	met.BumpSum("auction.ended", 1, "version", e.version, "sold", boolTag(ended.HighestBidder != nil))
	return ended, nil
}

// settle hands the asset over and books the seller payout. Failures never
// undo the end, they are queued for the signer instead.
func (e *engine) settle(c ctx.Ctx, a *auction.Auction) {
	to := a.Seller
	if a.HighestBidder != nil {
		to = *a.HighestBidder
	}

	if err := e.custodian.TransferCustody(c, a.Asset, e.proxy, to); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"to":  to,
		}).Error("custodian.TransferCustody failed")
		e.addObligation(c, custody.NewAssetTransfer(a.Id, a.Asset, e.proxy, to))
	}

	if paid, ok := a.Escrowed(); ok && a.HighestBidder != nil {
		e.addObligation(c, custody.NewPayout(a.Id, a.Seller, paid))
	}
}

func (e *engine) addObligation(c ctx.Ctx, o *custody.Obligation) {
	if err := e.obligations.Add(c, o); err != nil {
		met.BumpSum("obligation.err", 1, "kind", string(o.Kind))
		c.WithFields(log.Fields{
			"err":        err,
			"obligation": o,
		}).Error("obligations.Add failed")
	}
}

func (e *engine) Auction(c ctx.Ctx, id uint64) (*auction.Auction, error) {
	a, err := e.repo.Get(c, id)
	if err == domain.ErrNotFound {
		return nil, xerrors.Errorf("auction %d: %w", id, domain.ErrAuctionNotFound)
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("repo.Get failed")
		return nil, err
	}
	return a, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		return "tooLow"
	case errors.Is(err, domain.ErrAuctionEnded):
		return "ended"
	case errors.Is(err, domain.ErrAuctionNotFound):
		return "notFound"
	case errors.Is(err, domain.ErrContention):
		return "contention"
	default:
		return "internal"
	}
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
