package repository

import (
	"fmt"
	"sync"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"golang.org/x/xerrors"
)

// Registry is an in-process ERC-721 ledger with the approval rules of the
// standard. It backs local runs and fixtures.
type Registry struct {
	mu        sync.RWMutex
	owners    map[string]domain.Address
	approved  map[string]domain.Address
	operators map[string]bool
}

var _ custody.Custodian = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		owners:    make(map[string]domain.Address),
		approved:  make(map[string]domain.Address),
		operators: make(map[string]bool),
	}
}

func operatorKey(collection, owner, operator domain.Address) string {
	return fmt.Sprintf("%s:%s:%s", collection.ToLowerStr(), owner.ToLowerStr(), operator.ToLowerStr())
}

func (r *Registry) Mint(asset auction.AssetRef, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[asset.String()]; ok {
		return xerrors.Errorf("token %s already minted: %w", asset, domain.ErrBadParamInput)
	}
	r.owners[asset.String()] = to.ToLower()
	return nil
}

func (r *Registry) OwnerOf(asset auction.AssetRef) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[asset.String()]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

// Approve grants operator the single token, only its owner may do so.
func (r *Registry) Approve(asset auction.AssetRef, owner, operator domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.owners[asset.String()]
	if !ok {
		return domain.ErrNotFound
	}
	if !cur.Equals(owner) {
		return domain.ErrUnauthorized
	}
	r.approved[asset.String()] = operator.ToLower()
	return nil
}

func (r *Registry) SetApprovalForAll(collection, owner, operator domain.Address, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[operatorKey(collection, owner, operator)] = approved
}

func (r *Registry) HasApproval(c ctx.Ctx, asset auction.AssetRef, owner, operator domain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cur, ok := r.owners[asset.String()]
	if !ok || !cur.Equals(owner) {
		return false, nil
	}
	if a, ok := r.approved[asset.String()]; ok && a.Equals(operator) {
		return true, nil
	}
	return r.operators[operatorKey(asset.Collection, owner, operator)], nil
}

// TransferCustody moves the token, clearing its single-token approval.
func (r *Registry) TransferCustody(c ctx.Ctx, asset auction.AssetRef, from, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.owners[asset.String()]
	if !ok {
		return xerrors.Errorf("token %s: %w", asset, domain.ErrNotFound)
	}
	if !cur.Equals(from) {
		return xerrors.Errorf("token %s owned by %s not %s: %w", asset, cur, from, domain.ErrUnauthorized)
	}
	r.owners[asset.String()] = to.ToLower()
	delete(r.approved, asset.String())
	return nil
}
