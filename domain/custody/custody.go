package custody

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
)

// Custodian is the token contract as seen by the auction engine.
type Custodian interface {
	// HasApproval reports whether operator may move asset on behalf of owner
	HasApproval(c ctx.Ctx, asset auction.AssetRef, owner, operator domain.Address) (bool, error)
	TransferCustody(c ctx.Ctx, asset auction.AssetRef, from, to domain.Address) error
}

type ObligationKind string

const (
	ObligationRefund        ObligationKind = "refund"
	ObligationPayout        ObligationKind = "payout"
	ObligationAssetTransfer ObligationKind = "assetTransfer"
)

// Obligation is a value or asset movement the engine owes someone. Native
// value never moves inside this service, the signer settles obligations.
type Obligation struct {
	Id          string            `json:"id"`
	Kind        ObligationKind    `json:"kind"`
	AuctionId   *uint64           `json:"auctionId,omitempty"`
	Beneficiary domain.Address    `json:"beneficiary"`
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Asset       *auction.AssetRef `json:"asset,omitempty"`
	From        domain.Address    `json:"from,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	SettledAt   *time.Time        `json:"settledAt,omitempty"`
}

func NewRefund(auctionId uint64, bidder domain.Address, amount decimal.Decimal) *Obligation {
	return &Obligation{
		Id:          uuid.NewString(),
		Kind:        ObligationRefund,
		AuctionId:   &auctionId,
		Beneficiary: bidder,
		Amount:      &amount,
		CreatedAt:   time.Now(),
	}
}

func NewPayout(auctionId uint64, seller domain.Address, amount decimal.Decimal) *Obligation {
	return &Obligation{
		Id:          uuid.NewString(),
		Kind:        ObligationPayout,
		AuctionId:   &auctionId,
		Beneficiary: seller,
		Amount:      &amount,
		CreatedAt:   time.Now(),
	}
}

func NewAssetTransfer(auctionId uint64, asset auction.AssetRef, from, to domain.Address) *Obligation {
	return &Obligation{
		Id:          uuid.NewString(),
		Kind:        ObligationAssetTransfer,
		AuctionId:   &auctionId,
		Beneficiary: to,
		Asset:       &asset,
		From:        from,
		CreatedAt:   time.Now(),
	}
}

// NewCustodyTransfer is an asset movement requested outside of settlement,
// such as taking custody when an auction is created.
func NewCustodyTransfer(asset auction.AssetRef, from, to domain.Address) *Obligation {
	return &Obligation{
		Id:          uuid.NewString(),
		Kind:        ObligationAssetTransfer,
		Beneficiary: to,
		Asset:       &asset,
		From:        from,
		CreatedAt:   time.Now(),
	}
}

const auctionIdKey = "auctionId"

// WithAuction tags c with the auction a custody movement settles.
func WithAuction(c ctx.Ctx, auctionId uint64) ctx.Ctx {
	return ctx.WithValue(c, auctionIdKey, auctionId)
}

func AuctionFrom(c ctx.Ctx) (uint64, bool) {
	id, ok := c.Value(auctionIdKey).(uint64)
	return id, ok
}

// SameAuction reports whether o belongs to auction id.
func (o *Obligation) SameAuction(id uint64) bool {
	return o.AuctionId != nil && *o.AuctionId == id
}

type ObligationRepo interface {
	Add(c ctx.Ctx, o *Obligation) error
	FindByAuction(c ctx.Ctx, auctionId uint64) ([]*Obligation, error)
	// MarkSettled returns domain.ErrNotFound for unknown or already settled ids
	MarkSettled(c ctx.Ctx, id string) error
}
