package ens

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

type ENS interface {
	// Resolve accepts either a hex address or an ENS name such as
	// eth-usd.data.eth, which is how Chainlink publishes its feeds.
	Resolve(ctx ctx.Ctx, nameOrAddress string) (domain.Address, error)
}
