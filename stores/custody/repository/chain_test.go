package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/custody"
)

type fakeErc721 struct {
	owner       domain.Address
	approved    domain.Address
	approvedAll bool
}

func (f *fakeErc721) Supports721Interface(c ctx.Ctx, addr domain.Address) (bool, error) {
	return true, nil
}

func (f *fakeErc721) OwnerOf(c ctx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	return f.owner, nil
}

func (f *fakeErc721) GetApproved(c ctx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	return f.approved, nil
}

func (f *fakeErc721) IsApprovedForAll(c ctx.Ctx, addr, owner, operator domain.Address) (bool, error) {
	return f.approvedAll, nil
}

type chainSuite struct {
	suite.Suite
	erc721      *fakeErc721
	obligations custody.ObligationRepo
	im          custody.Custodian
}

func TestChain(t *testing.T) {
	suite.Run(t, new(chainSuite))
}

func (s *chainSuite) SetupTest() {
	s.erc721 = &fakeErc721{owner: seller, approved: domain.EmptyAddress}
	s.obligations = NewObligationMemory()
	s.im = NewChain(s.erc721, s.obligations)
}

func (s *chainSuite) TestHasApproval() {
	c := ctx.Background()
	ok, err := s.im.HasApproval(c, token1, seller, proxy)
	s.NoError(err)
	s.False(ok)

	s.erc721.approved = proxy
	ok, _ = s.im.HasApproval(c, token1, seller, proxy)
	s.True(ok)

	s.erc721.approved = domain.EmptyAddress
	s.erc721.approvedAll = true
	ok, _ = s.im.HasApproval(c, token1, seller, proxy)
	s.True(ok)

	s.erc721.owner = proxy
	ok, _ = s.im.HasApproval(c, token1, seller, proxy)
	s.False(ok)
}

func (s *chainSuite) TestTransferQueuesObligation() {
	c := custody.WithAuction(ctx.Background(), 4)
	s.Require().NoError(s.im.TransferCustody(c, token1, proxy, seller))

	res, err := s.obligations.FindByAuction(ctx.Background(), 4)
	s.Require().NoError(err)
	s.Require().Len(res, 1)
	s.Equal(custody.ObligationAssetTransfer, res[0].Kind)
	s.Equal(seller, res[0].Beneficiary)
	s.Equal(proxy, res[0].From)
	s.True(token1.Equals(*res[0].Asset))
}
