package chain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	bCtx "github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
)

var ErrUnsupportedChain = errors.New("unsupported chain")

type ClientCfg struct {
	RpcUrls map[domain.ChainId]string
}

// Client performs read-only contract calls.
type Client interface {
	Call(ctx bCtx.Ctx, chainId domain.ChainId, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error)
}

// ContractCaller is the part of ethclient.Client the service uses.
type ContractCaller interface {
	CallContract(ctx bCtx.Ctx, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type ethCaller struct {
	*ethclient.Client
}

func (c ethCaller) CallContract(ctx bCtx.Ctx, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.Client.CallContract(ctx, msg, blockNumber)
}

type clientImpl struct {
	callers map[domain.ChainId]ContractCaller
}

// NewClient dials every configured rpc. Chains that fail to dial are left out
// and reported through the returned error, the client stays usable for the
// others.
func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	var anyerr error
	callers := make(map[domain.ChainId]ContractCaller)
	for chainId, url := range cfg.RpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
				"url":     url,
			}).Warn("failed to dial rpc")
			continue
		}
		callers[chainId] = ethCaller{client}
	}
	return &clientImpl{callers: callers}, anyerr
}

// NewClientWithCallers is used by tests and by tools that already hold a
// connection.
func NewClientWithCallers(callers map[domain.ChainId]ContractCaller) Client {
	return &clientImpl{callers: callers}
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId domain.ChainId, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	caller, ok := c.callers[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := caller.CallContract(ctx, msg, blk)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method, "to": addr}).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method}).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}
