package ens

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	goens "github.com/wealdtech/go-ens/v3"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/keys"
	"github.com/x-xyz/auctionproxy/service/cache"
	"github.com/x-xyz/auctionproxy/service/cache/provider/primitive"
	"golang.org/x/xerrors"
)

type impl struct {
	backend bind.ContractBackend
	cache   cache.Service
}

func New(backend bind.ContractBackend) ENS {
	return &impl{
		backend: backend,
		cache: cache.New(cache.ServiceConfig{
			Ttl:   10 * time.Minute,
			Pfx:   "ensPfx",
			Cache: primitive.NewPrimitive("ens", 1),
		}),
	}
}

func (im *impl) Resolve(c ctx.Ctx, nameOrAddress string) (domain.Address, error) {
	if common.IsHexAddress(nameOrAddress) {
		return domain.Address(nameOrAddress).ToLower(), nil
	}
	if !strings.Contains(nameOrAddress, ".") {
		return "", xerrors.Errorf("%q is neither an address nor an ens name: %w", nameOrAddress, domain.ErrInvalidAddress)
	}
	if im.backend == nil {
		return "", xerrors.Errorf("no rpc to resolve %q: %w", nameOrAddress, domain.ErrInvalidAddress)
	}

	res := domain.Address("")
	key := keys.RedisKey("resolve", strings.ToLower(nameOrAddress))
	err := im.cache.GetByFunc(c, key, &res, func() (interface{}, error) {
		addr, err := goens.Resolve(im.backend, nameOrAddress)
		if err != nil {
			return nil, err
		}
		val := domain.AddressOf(addr)
		return &val, nil
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"name": nameOrAddress,
		}).Error("failed to resolve ens name")
		return "", xerrors.Errorf("resolve %q: %v: %w", nameOrAddress, err, domain.ErrInvalidAddress)
	}
	return res, nil
}
