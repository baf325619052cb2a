package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/oracle"
	auctionRepo "github.com/x-xyz/auctionproxy/stores/auction/repository"
	auctionUsecase "github.com/x-xyz/auctionproxy/stores/auction/usecase"
	custodyRepo "github.com/x-xyz/auctionproxy/stores/custody/repository"
	deploymentRepo "github.com/x-xyz/auctionproxy/stores/deployment/repository"
	deploymentUsecase "github.com/x-xyz/auctionproxy/stores/deployment/usecase"
	oracleRepo "github.com/x-xyz/auctionproxy/stores/oracle/repository"
	oracleUsecase "github.com/x-xyz/auctionproxy/stores/oracle/usecase"
)

var (
	deployer = domain.Address("0x00000000000000000000000000000000000000de")
	admin    = domain.Address("0x00000000000000000000000000000000000000ad")
	seller   = domain.Address("0x00000000000000000000000000000000000000a1")
	bidder   = domain.Address("0x00000000000000000000000000000000000000b1")
	bidder2  = domain.Address("0x00000000000000000000000000000000000000b2")
	feed     = domain.Address("0x694aa1769357215de4fac081bf1f309adc325306")
	nft      = auction.AssetRef{Collection: "0x00000000000000000000000000000000000000c1", TokenId: "1"}
)

func ether(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type proxySuite struct {
	suite.Suite

	nfts        *custodyRepo.Registry
	obligations custody.ObligationRepo
	feeds       *oracleRepo.Static
	coordinator deployment.Coordinator
	proxy       auction.Usecase
	address     domain.Address
}

func TestProxy(t *testing.T) {
	suite.Run(t, new(proxySuite))
}

func (s *proxySuite) SetupTest() {
	c := ctx.Background()

	cache := deploymentRepo.NewFileCache(afero.NewMemMapFs(), "")
	store := deploymentRepo.NewProxyMemory()
	s.nfts = custodyRepo.NewRegistry()
	s.obligations = custodyRepo.NewObligationMemory()
	s.feeds = oracleRepo.NewStatic()

	registry := deploymentRepo.NewArtifactRegistry(auctionUsecase.EngineCfg{
		Repo:         auctionRepo.NewMemory(),
		Custodian:    s.nfts,
		Obligations:  s.obligations,
		ProxyStore:   store,
		Oracle:       oracleUsecase.New(&oracleUsecase.AdapterCfg{Reader: s.feeds}),
		BackoffStart: time.Millisecond,
		BackoffLimit: 2 * time.Millisecond,
	})
	s.coordinator = deploymentUsecase.New(&deploymentUsecase.CoordinatorCfg{
		Deployer:   deployer,
		Cache:      cache,
		ProxyStore: store,
		Registry:   registry,
		Lock:       deploymentRepo.NewMemoryLock(),
	})
	s.proxy = New(&ProxyCfg{
		Cache:      cache,
		ProxyStore: store,
		Registry:   registry,
	})

	_, err := s.proxy.Auction(c, 0)
	s.ErrorIs(err, domain.ErrNoPriorDeployment)

	rec, err := s.coordinator.Deploy(c, deployment.DeployParams{Admin: admin})
	s.Require().NoError(err)
	s.address = rec.ProxyAddress

	s.Require().NoError(s.nfts.Mint(nft, seller))
	s.nfts.SetApprovalForAll(nft.Collection, seller, s.address, true)
}

// create and bid 0.02, the state every upgrade test starts from
func (s *proxySuite) createAndBid() *auction.Auction {
	c := ctx.Background()

	a, err := s.proxy.CreateAuction(c, auction.CreateParams{
		Seller:     seller,
		Asset:      nft,
		Duration:   1000 * time.Second,
		StartPrice: ether("0.01"),
	})
	s.Require().NoError(err)
	s.Equal(uint64(0), a.Id)
	s.False(a.Ended)

	owner, _ := s.nfts.OwnerOf(nft)
	s.Equal(s.address, owner)

	a, err = s.proxy.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder, Amount: ether("0.02")})
	s.Require().NoError(err)
	s.True(ether("0.02").Equal(*a.HighestBid))
	s.Equal(bidder, *a.HighestBidder)

	_, err = s.proxy.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.015")})
	s.ErrorIs(err, domain.ErrBidTooLow)
	return a
}

func (s *proxySuite) TestStateSurvivesUpgrade() {
	c := ctx.Background()
	before := s.createAndBid()

	rec, err := s.coordinator.Upgrade(c)
	s.Require().NoError(err)
	s.Equal(deployment.VersionV2, rec.Version)
	s.Equal(s.address, rec.ProxyAddress)

	after, err := s.proxy.Auction(c, 0)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *proxySuite) TestOracleBidWithoutFeed() {
	c := ctx.Background()
	s.createAndBid()
	_, err := s.coordinator.Upgrade(c)
	s.Require().NoError(err)

	_, err = s.proxy.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("1"), Currency: auction.CurrencyOracle})
	s.ErrorIs(err, domain.ErrOracleUnavailable)

	a, _ := s.proxy.Auction(c, 0)
	s.Equal(bidder, *a.HighestBidder)
}

func (s *proxySuite) TestOracleBidBeforeUpgrade() {
	s.createAndBid()
	_, err := s.proxy.Bid(ctx.Background(), auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("1"), Currency: auction.CurrencyOracle})
	s.ErrorIs(err, domain.ErrOracleUnavailable)
}

func (s *proxySuite) TestOracleBid() {
	c := ctx.Background()
	s.createAndBid()
	_, err := s.coordinator.Upgrade(c)
	s.Require().NoError(err)
	_, err = s.coordinator.SetFeed(c, admin, feed)
	s.Require().NoError(err)
	s.feeds.Set(feed, ether("3349.15"))

	a, err := s.proxy.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.01"), Currency: auction.CurrencyOracle})
	s.Require().NoError(err)
	s.True(ether("33.4915").Equal(*a.HighestBid))
	s.True(ether("0.01").Equal(*a.HighestBidAmount))
	s.Equal(bidder2, *a.HighestBidder)
	s.Equal(auction.CurrencyOracle, a.BidCurrencyMode)

	a, err = s.proxy.End(c, seller, 0)
	s.Require().NoError(err)
	s.True(a.Ended)
	owner, _ := s.nfts.OwnerOf(nft)
	s.Equal(bidder2, owner)

	obligations, err := s.obligations.FindByAuction(c, 0)
	s.Require().NoError(err)
	s.Require().Len(obligations, 2)
	s.Equal(custody.ObligationRefund, obligations[0].Kind)
	s.True(ether("0.02").Equal(*obligations[0].Amount))
	s.Equal(custody.ObligationPayout, obligations[1].Kind)
	s.True(ether("0.01").Equal(*obligations[1].Amount))
}

func (s *proxySuite) TestStaleFeed() {
	c := ctx.Background()
	s.createAndBid()
	_, err := s.coordinator.Upgrade(c)
	s.Require().NoError(err)
	_, err = s.coordinator.SetFeed(c, admin, feed)
	s.Require().NoError(err)
	s.feeds.SetRound(feed, oracle.Round{Answer: ether("3349.15"), UpdatedAt: time.Now().Add(-2 * time.Hour)})

	_, err = s.proxy.Bid(c, auction.BidParams{AuctionId: 0, Bidder: bidder2, Amount: ether("0.01"), Currency: auction.CurrencyOracle})
	s.ErrorIs(err, domain.ErrOracleUnavailable)
}
