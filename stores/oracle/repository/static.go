package repository

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/oracle"
)

// Static answers with operator provided prices. It stands in for a real
// feed on local chains.
type Static struct {
	mu     sync.RWMutex
	rounds map[domain.Address]oracle.Round
	now    func() time.Time
}

var _ oracle.FeedReader = (*Static)(nil)

func NewStatic() *Static {
	return &Static{rounds: make(map[domain.Address]oracle.Round), now: time.Now}
}

// Set publishes answer for feed, dated now.
func (s *Static) Set(feed domain.Address, answer decimal.Decimal) {
	s.SetRound(feed, oracle.Round{Answer: answer, UpdatedAt: s.now()})
}

func (s *Static) SetRound(feed domain.Address, r oracle.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[feed.ToLower()] = r
}

func (s *Static) LatestRound(c ctx.Ctx, feed domain.Address) (*oracle.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[feed.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}
