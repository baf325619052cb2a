package notify

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
)

type logNotifier struct{}

func NewLog() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Notify(c ctx.Ctx, r Report) {
	fields := log.Fields{
		"action":         r.Action,
		"chainId":        r.ChainId,
		"proxy":          r.ProxyAddress,
		"implementation": r.Implementation,
		"version":        r.Version,
	}
	if r.Feed != nil {
		fields["feed"] = *r.Feed
	}
	if r.Err != nil {
		fields["err"] = r.Err
		c.WithFields(fields).Error("operator action failed")
		return
	}
	c.WithFields(fields).Info("operator action done")
}
