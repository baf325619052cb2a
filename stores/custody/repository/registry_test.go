package repository

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
)

var (
	nft    = domain.Address("0x00000000000000000000000000000000000000c1")
	seller = domain.Address("0x00000000000000000000000000000000000000a1")
	proxy  = domain.Address("0x00000000000000000000000000000000000000f1")
	token1 = auction.AssetRef{Collection: nft, TokenId: "1"}
)

type registrySuite struct {
	suite.Suite
	im *Registry
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(registrySuite))
}

func (s *registrySuite) SetupTest() {
	s.im = NewRegistry()
	s.Require().NoError(s.im.Mint(token1, seller))
}

func (s *registrySuite) TestMintTwice() {
	s.ErrorIs(s.im.Mint(token1, proxy), domain.ErrBadParamInput)
}

func (s *registrySuite) TestApprovalForAll() {
	c := ctx.Background()
	ok, err := s.im.HasApproval(c, token1, seller, proxy)
	s.NoError(err)
	s.False(ok)

	s.im.SetApprovalForAll(nft, seller, proxy, true)
	ok, _ = s.im.HasApproval(c, token1, seller, proxy)
	s.True(ok)

	// approval only counts for the actual owner
	ok, _ = s.im.HasApproval(c, token1, proxy, proxy)
	s.False(ok)
}

func (s *registrySuite) TestSingleTokenApproval() {
	c := ctx.Background()
	s.Equal(domain.ErrUnauthorized, s.im.Approve(token1, proxy, proxy))
	s.NoError(s.im.Approve(token1, seller, proxy))

	ok, _ := s.im.HasApproval(c, token1, seller, proxy)
	s.True(ok)

	s.Require().NoError(s.im.TransferCustody(c, token1, seller, proxy))
	owner, err := s.im.OwnerOf(token1)
	s.NoError(err)
	s.Equal(proxy, owner)

	// transfer clears the single token approval
	s.Require().NoError(s.im.TransferCustody(c, token1, proxy, seller))
	ok, _ = s.im.HasApproval(c, token1, seller, proxy)
	s.False(ok)
}

func (s *registrySuite) TestTransferFromWrongOwner() {
	c := ctx.Background()
	s.ErrorIs(s.im.TransferCustody(c, token1, proxy, seller), domain.ErrUnauthorized)
	s.ErrorIs(s.im.TransferCustody(c, auction.AssetRef{Collection: nft, TokenId: "2"}, seller, proxy), domain.ErrNotFound)
}
