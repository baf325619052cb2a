package notify

import (
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

// Report is the outcome of an operator action on the proxy.
type Report struct {
	Action         string
	ChainId        domain.ChainId
	ProxyAddress   domain.Address
	Implementation domain.Address
	Version        string
	Feed           *domain.Address
	At             time.Time
	Err            error
}

// Notifier tells the operator what happened. Failures to notify are logged
// and never fail the action itself.
type Notifier interface {
	Notify(c ctx.Ctx, r Report)
}
