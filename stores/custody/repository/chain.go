package repository

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/service/chain/contract"
	"golang.org/x/xerrors"
)

// chainImpl reads approvals from the token contract. Transfers need a
// signature, so they are queued as obligations for the external signer.
type chainImpl struct {
	erc721      contract.Erc721Contract
	obligations custody.ObligationRepo
}

func NewChain(erc721 contract.Erc721Contract, obligations custody.ObligationRepo) custody.Custodian {
	return &chainImpl{erc721, obligations}
}

func (im *chainImpl) HasApproval(c ctx.Ctx, asset auction.AssetRef, owner, operator domain.Address) (bool, error) {
	tokenId, err := asset.TokenId.BigInt()
	if err != nil {
		return false, xerrors.Errorf("token %s: %w", asset, domain.ErrInvalidParameters)
	}

	cur, err := im.erc721.OwnerOf(c, asset.Collection, tokenId)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"asset": asset.String(),
		}).Error("erc721.OwnerOf failed")
		return false, err
	}
	if !cur.Equals(owner) {
		return false, nil
	}

	if approved, err := im.erc721.GetApproved(c, asset.Collection, tokenId); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"asset": asset.String(),
		}).Error("erc721.GetApproved failed")
		return false, err
	} else if approved.Equals(operator) {
		return true, nil
	}

	ok, err := im.erc721.IsApprovedForAll(c, asset.Collection, owner, operator)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"asset": asset.String(),
		}).Error("erc721.IsApprovedForAll failed")
		return false, err
	}
	return ok, nil
}

func (im *chainImpl) TransferCustody(c ctx.Ctx, asset auction.AssetRef, from, to domain.Address) error {
	o := custody.NewCustodyTransfer(asset, from, to)
	if id, ok := custody.AuctionFrom(c); ok {
		o.AuctionId = &id
	}
	if err := im.obligations.Add(c, o); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"asset": asset.String(),
		}).Error("obligations.Add failed")
		return err
	}
	return nil
}
