package deployment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

const (
	ProxyKindTransparent = "transparent"

	// DefaultCacheFile is where the operator tooling keeps the proxy record
	DefaultCacheFile = ".cache/proxyNftAuction.json"
)

type Version string

const (
	VersionV1 Version = "V1"
	VersionV2 Version = "V2"
)

func (v Version) Number() (int, error) {
	s := string(v)
	if !strings.HasPrefix(s, "V") {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return n, nil
}

// Next is the version an upgrade from v installs.
func (v Version) Next() (Version, error) {
	n, err := v.Number()
	if err != nil {
		return "", err
	}
	return Version(fmt.Sprintf("V%d", n+1)), nil
}

// Record is the operator-side description of the deployed proxy.
type Record struct {
	ProxyAddress          domain.Address  `json:"proxyAddress" bson:"proxyAddress"`
	ImplementationAddress domain.Address  `json:"implAddress" bson:"implAddress"`
	Abi                   string          `json:"abi" bson:"abi"`
	Version               Version         `json:"version" bson:"version"`
	UpgradeTime           *time.Time      `json:"upgradeTime,omitempty" bson:"upgradeTime,omitempty"`
	OracleFeedAddress     *domain.Address `json:"oracleFeedAddress,omitempty" bson:"oracleFeedAddress,omitempty"`
	Admin                 domain.Address  `json:"admin" bson:"admin"`
	ProxyKind             string          `json:"proxyKind" bson:"proxyKind"`
	DeployedAt            time.Time       `json:"deployedAt" bson:"deployedAt"`
	ChainId               domain.ChainId  `json:"chainId" bson:"chainId"`
}

func (r *Record) Clone() *Record {
	cp := *r
	if r.UpgradeTime != nil {
		t := *r.UpgradeTime
		cp.UpgradeTime = &t
	}
	if r.OracleFeedAddress != nil {
		a := *r.OracleFeedAddress
		cp.OracleFeedAddress = &a
	}
	return &cp
}

// Cache persists the single deployment record.
type Cache interface {
	// Load returns domain.ErrCacheMissing when nothing was ever saved
	Load(c ctx.Ctx) (*Record, error)
	// Save replaces the whole record atomically
	Save(c ctx.Ctx, r *Record) error
	// Location names where the record lives, for error messages
	Location() string
}

// ProxyState is the storage behind the proxy address itself.
type ProxyState struct {
	Implementation domain.Address  `json:"implementation"`
	Admin          domain.Address  `json:"admin"`
	OracleFeed     *domain.Address `json:"oracleFeed,omitempty"`
}

type ProxyStore interface {
	// Init returns domain.ErrAlreadyDeployed if proxy already holds state
	Init(c ctx.Ctx, proxy domain.Address, state ProxyState) error
	// Get returns domain.ErrNotFound for unknown proxies
	Get(c ctx.Ctx, proxy domain.Address) (*ProxyState, error)
	SetImplementation(c ctx.Ctx, proxy, impl domain.Address) error
	SetFeed(c ctx.Ctx, proxy, feed domain.Address) error
}

// Lock serializes upgrades. TryLock never waits; a held lock yields
// domain.ErrUpgradeInProgress.
type Lock interface {
	TryLock(c ctx.Ctx, key string) (unlock func(), err error)
}

type DeployParams struct {
	Admin   domain.Address
	ChainId domain.ChainId
}

type Coordinator interface {
	Deploy(c ctx.Ctx, p DeployParams) (*Record, error)
	Upgrade(c ctx.Ctx) (*Record, error)
	SetFeed(c ctx.Ctx, caller, feed domain.Address) (*Record, error)
	Status(c ctx.Ctx) (*Record, *ProxyState, error)
}
