package usecase

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	auctionMocks "github.com/x-xyz/auctionproxy/domain/auction/mocks"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	deploymentMocks "github.com/x-xyz/auctionproxy/domain/deployment/mocks"
	oracleMocks "github.com/x-xyz/auctionproxy/domain/oracle/mocks"
	auctionRepo "github.com/x-xyz/auctionproxy/stores/auction/repository"
	custodyRepo "github.com/x-xyz/auctionproxy/stores/custody/repository"
)

var (
	proxy   = domain.Address("0x00000000000000000000000000000000000000f1")
	seller  = domain.Address("0x00000000000000000000000000000000000000a1")
	bidder  = domain.Address("0x00000000000000000000000000000000000000b1")
	bidder2 = domain.Address("0x00000000000000000000000000000000000000b2")
	feed    = domain.Address("0x00000000000000000000000000000000000000d1")
	nft     = auction.AssetRef{Collection: "0x00000000000000000000000000000000000000c1", TokenId: "1"}
)

func ether(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type engineSuite struct {
	suite.Suite

	repo        auction.Repo
	registry    *custodyRepo.Registry
	obligations custody.ObligationRepo
	proxyStore  *deploymentMocks.ProxyStore
	adapter     *oracleMocks.Adapter
	v1          auction.Logic
	v2          auction.Logic
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(engineSuite))
}

func (s *engineSuite) SetupTest() {
	s.repo = auctionRepo.NewMemory()
	s.registry = custodyRepo.NewRegistry()
	s.obligations = custodyRepo.NewObligationMemory()
	s.proxyStore = deploymentMocks.NewProxyStore(s.T())
	s.adapter = oracleMocks.NewAdapter(s.T())

	s.Require().NoError(s.registry.Mint(nft, seller))
	s.registry.SetApprovalForAll(nft.Collection, seller, proxy, true)

	cfg := s.cfg(s.repo)
	s.v1 = NewV1(cfg)
	s.v2 = NewV2(cfg)
}

func (s *engineSuite) cfg(repo auction.Repo) *EngineCfg {
	return &EngineCfg{
		Proxy:        proxy,
		Repo:         repo,
		Custodian:    s.registry,
		Obligations:  s.obligations,
		ProxyStore:   s.proxyStore,
		Oracle:       s.adapter,
		BackoffStart: time.Millisecond,
		BackoffLimit: 2 * time.Millisecond,
	}
}

func (s *engineSuite) create(logic auction.Logic) *auction.Auction {
	a, err := logic.CreateAuction(ctx.Background(), auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   1000 * time.Second,
		StartPrice: ether("0.01"),
	})
	s.Require().NoError(err)
	return a
}

func (s *engineSuite) TestCreateAuction() {
	a := s.create(s.v1)

	s.Equal(uint64(0), a.Id)
	s.False(a.Ended)
	s.Nil(a.HighestBid)
	s.Nil(a.HighestBidder)
	s.Equal(seller, a.Seller)
	s.True(nft.Equals(a.Asset))
	s.True(ether("0.01").Equal(a.StartPrice))
	s.Equal(1000*time.Second, a.Duration)
	s.Equal(auction.StateCreated, a.State())
	s.Equal(auction.SchemaV1, a.Schema)

	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(proxy, owner)
}

func (s *engineSuite) TestCreateAuctionInvalid() {
	c := ctx.Background()
	cases := []struct {
		name string
		p    auction.CreateParams
	}{
		{"zero duration", auction.CreateParams{Seller: seller, Asset: nft, StartPrice: ether("1")}},
		{"negative duration", auction.CreateParams{Seller: seller, Asset: nft, Duration: -time.Second, StartPrice: ether("1")}},
		{"zero price", auction.CreateParams{Seller: seller, Asset: nft, Duration: time.Second}},
		{"negative price", auction.CreateParams{Seller: seller, Asset: nft, Duration: time.Second, StartPrice: ether("-1")}},
		{"no seller", auction.CreateParams{Asset: nft, Duration: time.Second, StartPrice: ether("1")}},
	}
	for _, tc := range cases {
		_, err := s.v1.CreateAuction(c, tc.p)
		s.ErrorIs(err, domain.ErrInvalidParameters, tc.name)
	}
	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(seller, owner)
}

func (s *engineSuite) TestCreateAuctionWithoutApproval() {
	s.registry.SetApprovalForAll(nft.Collection, seller, proxy, false)
	_, err := s.v1.CreateAuction(ctx.Background(), auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   time.Second,
		StartPrice: ether("0.01"),
	})
	s.ErrorIs(err, domain.ErrCustodyNotGranted)

	_, err = s.repo.Get(ctx.Background(), 0)
	s.Equal(domain.ErrNotFound, err)
}

func (s *engineSuite) TestCreateAuctionReturnsAssetOnStoreFailure() {
	repo := auctionMocks.NewRepo(s.T())
	repo.On("FindOpen", mock.Anything, nft).Return(nil, domain.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(uint64(0), errors.New("db down")).Once()
	logic := NewV1(s.cfg(repo))

	_, err := logic.CreateAuction(ctx.Background(), auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   time.Second,
		StartPrice: ether("0.01"),
	})
	s.EqualError(err, "db down")

	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(seller, owner)
}

func (s *engineSuite) TestBidSequence() {
	c := ctx.Background()
	s.create(s.v1)

	a, err := s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("0.02")})
	s.Require().NoError(err)
	s.True(ether("0.02").Equal(*a.HighestBid))
	s.Equal(bidder, *a.HighestBidder)
	s.Equal(auction.StateActive, a.State())

	_, err = s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.015")})
	s.ErrorIs(err, domain.ErrBidTooLow)

	// equal is not enough
	_, err = s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.02")})
	s.ErrorIs(err, domain.ErrBidTooLow)

	stored, _ := s.v1.Auction(c, 0)
	s.True(ether("0.02").Equal(*stored.HighestBid))
	s.Equal(bidder, *stored.HighestBidder)

	a, err = s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.03")})
	s.Require().NoError(err)
	s.Equal(bidder2, *a.HighestBidder)

	obligations, _ := s.obligations.FindByAuction(c, 0)
	s.Require().Len(obligations, 1)
	s.Equal(custody.ObligationRefund, obligations[0].Kind)
	s.Equal(bidder, obligations[0].Beneficiary)
	s.True(ether("0.02").Equal(*obligations[0].Amount))
}

func (s *engineSuite) TestBidBelowStartPrice() {
	s.create(s.v1)
	_, err := s.v1.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("0.01")})
	s.ErrorIs(err, domain.ErrBidTooLow)
}

func (s *engineSuite) TestBidUnknownAuction() {
	_, err := s.v1.Bid(ctx.Background(), auction.BidParams{AuctionId: 9, Bidder: bidder, Amount: ether("1")})
	s.ErrorIs(err, domain.ErrAuctionNotFound)

	_, err = s.v1.End(ctx.Background(), seller, 9)
	s.ErrorIs(err, domain.ErrAuctionNotFound)
}

func (s *engineSuite) TestOracleBidOnV1() {
	s.create(s.v1)
	_, err := s.v1.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("100"), Currency: auction.CurrencyOracle})
	s.ErrorIs(err, domain.ErrOracleUnavailable)
	s.False(s.v1.SupportsOracle())
}

func (s *engineSuite) TestOracleBidWithoutFeed() {
	s.create(s.v1)
	s.proxyStore.On("Get", mock.Anything, proxy).Return(&deployment.ProxyState{Implementation: "0x01", Admin: seller}, nil)

	for _, amount := range []string{"0.000001", "1", "1000000"} {
		_, err := s.v2.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether(amount), Currency: auction.CurrencyOracle})
		s.ErrorIs(err, domain.ErrOracleUnavailable, amount)
	}
	s.True(s.v2.SupportsOracle())
}

func (s *engineSuite) TestOracleBid() {
	c := ctx.Background()
	s.create(s.v1)
	_, err := s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("0.02")})
	s.Require().NoError(err)

	f := feed
	s.proxyStore.On("Get", mock.Anything, proxy).Return(&deployment.ProxyState{OracleFeed: &f}, nil)
	s.adapter.On("Convert", mock.Anything, feed, ether("0.01")).Return(ether("33.4915"), nil).Once()

	a, err := s.v2.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.01"), Currency: auction.CurrencyOracle})
	s.Require().NoError(err)
	s.True(ether("33.4915").Equal(*a.HighestBid))
	s.True(ether("0.01").Equal(*a.HighestBidAmount))
	s.Equal(auction.CurrencyOracle, a.BidCurrencyMode)
	s.Equal(auction.SchemaV2, a.Schema)

	// the first bidder is refunded what they paid
	obligations, _ := s.obligations.FindByAuction(c, 0)
	s.Require().Len(obligations, 1)
	s.True(ether("0.02").Equal(*obligations[0].Amount))
}

func (s *engineSuite) TestOracleFailure() {
	s.create(s.v1)
	f := feed
	s.proxyStore.On("Get", mock.Anything, proxy).Return(&deployment.ProxyState{OracleFeed: &f}, nil)
	s.adapter.On("Convert", mock.Anything, feed, mock.Anything).Return(decimal.Zero, errors.New("rpc timeout")).Once()

	_, err := s.v2.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("1"), Currency: auction.CurrencyOracle})
	s.ErrorIs(err, domain.ErrOracleUnavailable)

	a, _ := s.v2.Auction(ctx.Background(), 0)
	s.Nil(a.HighestBid)
}

func (s *engineSuite) TestEndSold() {
	c := ctx.Background()
	s.create(s.v1)
	_, err := s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("0.02")})
	s.Require().NoError(err)

	a, err := s.v1.End(c, bidder2, 0)
	s.Require().NoError(err)
	s.True(a.Ended)
	s.Equal(auction.StateEnded, a.State())

	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(bidder, owner)

	obligations, _ := s.obligations.FindByAuction(c, 0)
	s.Require().Len(obligations, 1)
	s.Equal(custody.ObligationPayout, obligations[0].Kind)
	s.Equal(seller, obligations[0].Beneficiary)

	_, err = s.v1.End(c, seller, 0)
	s.ErrorIs(err, domain.ErrAuctionEnded)

	_, err = s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("5")})
	s.ErrorIs(err, domain.ErrAuctionEnded)
}

func (s *engineSuite) TestEndUnsold() {
	c := ctx.Background()
	s.create(s.v1)

	_, err := s.v1.End(c, seller, 0)
	s.Require().NoError(err)

	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(seller, owner)
	obligations, _ := s.obligations.FindByAuction(c, 0)
	s.Empty(obligations)
}

func (s *engineSuite) TestEndQueuesFailedTransfer() {
	c := ctx.Background()
	s.create(s.v1)
	// the asset left custody behind the engine's back
	s.Require().NoError(s.registry.TransferCustody(c, nft, proxy, bidder2))

	_, err := s.v1.End(c, seller, 0)
	s.Require().NoError(err)

	obligations, _ := s.obligations.FindByAuction(c, 0)
	s.Require().Len(obligations, 1)
	s.Equal(custody.ObligationAssetTransfer, obligations[0].Kind)
	s.Equal(seller, obligations[0].Beneficiary)
}

func (s *engineSuite) TestContention() {
	repo := auctionMocks.NewRepo(s.T())
	repo.On("Get", mock.Anything, uint64(0)).Return(&auction.Auction{LayoutV1: auction.LayoutV1{StartPrice: ether("0.01")}}, nil)
	repo.On("Update", mock.Anything, uint64(0), mock.Anything).Return(nil, domain.ErrConflict).Times(DefaultMaxRetries)
	logic := NewV1(s.cfg(repo))

	_, err := logic.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("1")})
	s.ErrorIs(err, domain.ErrContention)
}

func (s *engineSuite) TestConflictRetried() {
	repo := auctionMocks.NewRepo(s.T())
	base := &auction.Auction{LayoutV1: auction.LayoutV1{StartPrice: ether("0.01")}}
	repo.On("Get", mock.Anything, uint64(0)).Return(base, nil)
	repo.On("Update", mock.Anything, uint64(0), mock.Anything).Return(nil, domain.ErrConflict).Twice()
	repo.On("Update", mock.Anything, uint64(0), mock.Anything).Return(
		func(c ctx.Ctx, id uint64, mutate auction.Mutation) *auction.Auction {
			a := base.Clone()
			s.Require().NoError(mutate(a))
			return a
		},
		nil,
	).Once()
	logic := NewV1(s.cfg(repo))

	a, err := logic.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("1")})
	s.Require().NoError(err)
	s.Equal(bidder, *a.HighestBidder)
}

func (s *engineSuite) TestConcurrentBidsMonotonic() {
	c := ctx.Background()
	s.create(s.v1)

	wg := sync.WaitGroup{}
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(i))
			_, err := s.v1.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: amount})
			if err != nil {
				s.True(errors.Is(err, domain.ErrBidTooLow) || errors.Is(err, domain.ErrContention), err.Error())
			}
		}(i)
	}
	wg.Wait()

	a, err := s.v1.Auction(c, 0)
	s.Require().NoError(err)
	s.Require().NotNil(a.HighestBid)

	// every accepted bid displaced exactly one smaller one
	obligations, _ := s.obligations.FindByAuction(c, 0)
	for _, o := range obligations {
		s.True(o.Amount.LessThan(*a.HighestBid))
	}
}

func (s *engineSuite) TestCreateAuctionAlreadyListed() {
	c := ctx.Background()
	s.create(s.v1)

	_, err := s.v2.CreateAuction(c, auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   time.Second,
		StartPrice: ether("0.01"),
	})
	s.ErrorIs(err, domain.ErrAlreadyExists)

	_, err = s.repo.Get(c, 1)
	s.Equal(domain.ErrNotFound, err)
	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(proxy, owner)
}

func (s *engineSuite) TestRelistAfterEnd() {
	c := ctx.Background()
	s.create(s.v1)
	_, err := s.v1.End(c, seller, 0)
	s.Require().NoError(err)

	a := s.create(s.v1)
	s.Equal(uint64(1), a.Id)
}

func (s *engineSuite) TestCreateAuctionLookupFailure() {
	repo := auctionMocks.NewRepo(s.T())
	repo.On("FindOpen", mock.Anything, nft).Return(nil, errors.New("db down")).Once()
	logic := NewV1(s.cfg(repo))

	_, err := logic.CreateAuction(ctx.Background(), auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   time.Second,
		StartPrice: ether("0.01"),
	})
	s.EqualError(err, "db down")

	owner, _ := s.registry.OwnerOf(nft)
	s.Equal(seller, owner)
}

// token contract whose owner never changes, like a chain where the queued
// transfers have not been signed yet
type staticErc721 struct {
	owner domain.Address
}

func (f *staticErc721) Supports721Interface(c ctx.Ctx, addr domain.Address) (bool, error) {
	return true, nil
}

func (f *staticErc721) OwnerOf(c ctx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	return f.owner, nil
}

func (f *staticErc721) GetApproved(c ctx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	return domain.EmptyAddress, nil
}

func (f *staticErc721) IsApprovedForAll(c ctx.Ctx, addr, owner, operator domain.Address) (bool, error) {
	return true, nil
}

type countingObligations struct {
	custody.ObligationRepo
	mu        sync.Mutex
	transfers int
}

func (o *countingObligations) Add(c ctx.Ctx, ob *custody.Obligation) error {
	o.mu.Lock()
	if ob.Kind == custody.ObligationAssetTransfer {
		o.transfers++
	}
	o.mu.Unlock()
	return o.ObligationRepo.Add(c, ob)
}

func (s *engineSuite) TestCreateAuctionAlreadyListedChainCustody() {
	c := ctx.Background()
	obligations := &countingObligations{ObligationRepo: custodyRepo.NewObligationMemory()}
	cfg := s.cfg(auctionRepo.NewMemory())
	cfg.Obligations = obligations
	cfg.Custodian = custodyRepo.NewChain(&staticErc721{owner: seller}, obligations)
	logic := NewV1(cfg)
	p := auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   time.Second,
		StartPrice: ether("0.01"),
	}

	first, err := logic.CreateAuction(c, p)
	s.Require().NoError(err)
	s.Equal(uint64(0), first.Id)
	s.Equal(1, obligations.transfers)

	_, err = logic.CreateAuction(c, p)
	s.ErrorIs(err, domain.ErrAlreadyExists)
	s.Equal(1, obligations.transfers)

	_, err = logic.End(c, seller, 0)
	s.Require().NoError(err)
	s.Equal(2, obligations.transfers)

	again, err := logic.CreateAuction(c, p)
	s.Require().NoError(err)
	s.Equal(uint64(1), again.Id)
	s.Equal(3, obligations.transfers)
}
