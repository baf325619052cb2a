package repository

import (
	"sync"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
)

type proxyMemoryImpl struct {
	mu     sync.RWMutex
	states map[domain.Address]deployment.ProxyState
}

func NewProxyMemory() deployment.ProxyStore {
	return &proxyMemoryImpl{states: make(map[domain.Address]deployment.ProxyState)}
}

func (im *proxyMemoryImpl) Init(c ctx.Ctx, proxy domain.Address, state deployment.ProxyState) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, ok := im.states[proxy.ToLower()]; ok {
		return domain.ErrAlreadyDeployed
	}
	im.states[proxy.ToLower()] = copyState(state)
	return nil
}

func (im *proxyMemoryImpl) Get(c ctx.Ctx, proxy domain.Address) (*deployment.ProxyState, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	s, ok := im.states[proxy.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := copyState(s)
	return &cp, nil
}

func (im *proxyMemoryImpl) SetImplementation(c ctx.Ctx, proxy, impl domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	s, ok := im.states[proxy.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	s.Implementation = impl
	im.states[proxy.ToLower()] = s
	return nil
}

func (im *proxyMemoryImpl) SetFeed(c ctx.Ctx, proxy, feed domain.Address) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	s, ok := im.states[proxy.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	s.OracleFeed = &feed
	im.states[proxy.ToLower()] = s
	return nil
}

func copyState(s deployment.ProxyState) deployment.ProxyState {
	if s.OracleFeed != nil {
		feed := *s.OracleFeed
		s.OracleFeed = &feed
	}
	return s
}
