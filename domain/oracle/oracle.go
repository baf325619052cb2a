package oracle

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

// Round is the latest answer of a price feed, already scaled by the feed's
// decimals.
type Round struct {
	Answer    decimal.Decimal
	UpdatedAt time.Time
}

type FeedReader interface {
	LatestRound(c ctx.Ctx, feed domain.Address) (*Round, error)
}

// Adapter converts native amounts into feed denominated values. Every
// failure wraps domain.ErrOracleUnavailable.
type Adapter interface {
	Convert(c ctx.Ctx, feed domain.Address, amount decimal.Decimal) (decimal.Decimal, error)
}
