package repository

import (
	"sync"

	"github.com/x-xyz/auctionproxy/base/counter"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"golang.org/x/xerrors"
)

type memoryImpl struct {
	mu      sync.RWMutex
	ids     *counter.Counter
	records map[uint64]*auction.Auction
	// asset key to the id of its open auction
	open map[string]uint64
}

func NewMemory() auction.Repo {
	return &memoryImpl{
		ids:     counter.NewCounter(),
		records: make(map[uint64]*auction.Auction),
		open:    make(map[string]uint64),
	}
}

func (im *memoryImpl) Create(c ctx.Ctx, a *auction.Auction) (uint64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	key := a.Asset.String()
	if id, ok := im.open[key]; ok && !a.Ended {
		return 0, xerrors.Errorf("%s open in auction %d: %w", key, id, domain.ErrAlreadyExists)
	}

	rec := a.Clone()
	rec.Id = im.ids.Next()
	rec.Revision = 1
	im.records[rec.Id] = rec
	if !rec.Ended {
		im.open[key] = rec.Id
	}
	return rec.Id, nil
}

func (im *memoryImpl) FindOpen(c ctx.Ctx, asset auction.AssetRef) (*auction.Auction, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	id, ok := im.open[asset.String()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return im.records[id].Clone(), nil
}

func (im *memoryImpl) Get(c ctx.Ctx, id uint64) (*auction.Auction, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	rec, ok := im.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update runs mutate without holding the lock, so a concurrent writer can
// slip in and turn this write into a conflict.
func (im *memoryImpl) Update(c ctx.Ctx, id uint64, mutate auction.Mutation) (*auction.Auction, error) {
	cur, err := im.Get(c, id)
	if err != nil {
		return nil, err
	}
	seen := cur.Revision

	if err := mutate(cur); err != nil {
		return nil, err
	}
	cur.Id = id
	cur.Revision = seen + 1

	im.mu.Lock()
	defer im.mu.Unlock()
	if im.records[id].Revision != seen {
		return nil, domain.ErrConflict
	}
	im.records[id] = cur
	if key := cur.Asset.String(); cur.Ended && im.open[key] == id {
		delete(im.open, key)
	}
	return cur.Clone(), nil
}
