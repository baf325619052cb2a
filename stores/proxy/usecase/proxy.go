package usecase

import (
	"sync"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"golang.org/x/xerrors"
)

type ProxyCfg struct {
	// Proxy may be left empty, it is then read from the deployment cache on
	// first use. The address never changes once deployed.
	Proxy      domain.Address
	Cache      deployment.Cache
	ProxyStore deployment.ProxyStore
	Registry   deployment.ArtifactRegistry
}

type proxyImpl struct {
	cache    deployment.Cache
	store    deployment.ProxyStore
	registry deployment.ArtifactRegistry

	mu    sync.Mutex
	proxy domain.Address
}

// New returns the stable entry point. Every call reads the implementation
// slot and forwards to whatever logic is installed there at that moment.
func New(cfg *ProxyCfg) auction.Usecase {
	return &proxyImpl{
		cache:    cfg.Cache,
		store:    cfg.ProxyStore,
		registry: cfg.Registry,
		proxy:    cfg.Proxy,
	}
}

func (im *proxyImpl) address(c ctx.Ctx) (domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if !im.proxy.IsEmpty() {
		return im.proxy, nil
	}

	rec, err := im.cache.Load(c)
	if err == domain.ErrCacheMissing {
		return "", xerrors.Errorf("%s: %w", im.cache.Location(), domain.ErrNoPriorDeployment)
	} else if err != nil {
		c.WithField("err", err).Error("cache.Load failed")
		return "", err
	}
	im.proxy = rec.ProxyAddress
	return im.proxy, nil
}

func (im *proxyImpl) logic(c ctx.Ctx) (auction.Logic, error) {
	proxy, err := im.address(c)
	if err != nil {
		return nil, err
	}

	state, err := im.store.Get(c, proxy)
	if err == domain.ErrNotFound {
		return nil, xerrors.Errorf("proxy %s: %w", proxy, domain.ErrNoPriorDeployment)
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"proxy": proxy,
		}).Error("store.Get failed")
		return nil, err
	}

	l, err := im.registry.Logic(c, proxy, state.Implementation)
	if err != nil {
		c.WithFields(log.Fields{
			"err":            err,
			"proxy":          proxy,
			"implementation": state.Implementation,
		}).Error("registry.Logic failed")
		return nil, xerrors.Errorf("implementation %s: %v: %w", state.Implementation, err, domain.ErrImplementationLoad)
	}
	return l, nil
}

func (im *proxyImpl) CreateAuction(c ctx.Ctx, p auction.CreateParams) (*auction.Auction, error) {
	l, err := im.logic(c)
	if err != nil {
		return nil, err
	}
	return l.CreateAuction(c, p)
}

func (im *proxyImpl) Bid(c ctx.Ctx, p auction.BidParams) (*auction.Auction, error) {
	l, err := im.logic(c)
	if err != nil {
		return nil, err
	}
	return l.Bid(c, p)
}

func (im *proxyImpl) End(c ctx.Ctx, caller domain.Address, id uint64) (*auction.Auction, error) {
	l, err := im.logic(c)
	if err != nil {
		return nil, err
	}
	return l.End(c, caller, id)
}

func (im *proxyImpl) Auction(c ctx.Ctx, id uint64) (*auction.Auction, error) {
	l, err := im.logic(c)
	if err != nil {
		return nil, err
	}
	return l.Auction(c, id)
}
