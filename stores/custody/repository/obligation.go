package repository

import (
	"sync"
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/custody"
)

type obligationMemoryImpl struct {
	mu    sync.RWMutex
	order []string
	byId  map[string]*custody.Obligation
}

func NewObligationMemory() custody.ObligationRepo {
	return &obligationMemoryImpl{byId: make(map[string]*custody.Obligation)}
}

func (im *obligationMemoryImpl) Add(c ctx.Ctx, o *custody.Obligation) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, ok := im.byId[o.Id]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *o
	im.byId[o.Id] = &cp
	im.order = append(im.order, o.Id)
	return nil
}

func (im *obligationMemoryImpl) FindByAuction(c ctx.Ctx, auctionId uint64) ([]*custody.Obligation, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	res := []*custody.Obligation{}
	for _, id := range im.order {
		if o := im.byId[id]; o.SameAuction(auctionId) {
			cp := *o
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (im *obligationMemoryImpl) MarkSettled(c ctx.Ctx, id string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	o, ok := im.byId[id]
	if !ok || o.SettledAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	o.SettledAt = &now
	return nil
}
