package chainlink

import (
	"github.com/x-xyz/auctionproxy/domain/oracle"
)

// Chainlink reads AggregatorV3 price feeds.
type Chainlink interface {
	oracle.FeedReader
}
