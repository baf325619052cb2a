package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	baseabi "github.com/x-xyz/auctionproxy/base/abi"
	bCtx "github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/service/chain"
)

type Erc721Contract interface {
	Supports721Interface(ctx bCtx.Ctx, addr domain.Address) (bool, error)
	OwnerOf(ctx bCtx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error)
	GetApproved(ctx bCtx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error)
	IsApprovedForAll(ctx bCtx.Ctx, addr, owner, operator domain.Address) (bool, error)
}

type Erc721 struct {
	chainService      chain.Client
	chainId           domain.ChainId
	abi               ethabi.ABI
	erc721InterfaceId [4]byte
}

func NewErc721(chainService chain.Client, chainId domain.ChainId) *Erc721 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("80ac58cd"))
	return &Erc721{
		abi:               baseabi.ERC721TokenABI,
		chainService:      chainService,
		chainId:           chainId,
		erc721InterfaceId: interfaceId,
	}
}

func (e *Erc721) Supports721Interface(ctx bCtx.Ctx, addr domain.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, addr.Common(), nil, e.abi, "supportsInterface", e.erc721InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) OwnerOf(ctx bCtx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, addr.Common(), nil, e.abi, "ownerOf", tokenId)
	if err != nil {
		return "", err
	}
	return domain.AddressOf(unpacked[0].(common.Address)), nil
}

func (e *Erc721) GetApproved(ctx bCtx.Ctx, addr domain.Address, tokenId *big.Int) (domain.Address, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, addr.Common(), nil, e.abi, "getApproved", tokenId)
	if err != nil {
		return "", err
	}
	return domain.AddressOf(unpacked[0].(common.Address)), nil
}

func (e *Erc721) IsApprovedForAll(ctx bCtx.Ctx, addr, owner, operator domain.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, addr.Common(), nil, e.abi, "isApprovedForAll", owner.Common(), operator.Common())
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}
