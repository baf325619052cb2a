package deployment

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"golang.org/x/xerrors"
)

// Artifact is a deployable implementation version.
type Artifact struct {
	Name    string
	Version Version
	Abi     string
	// Build instantiates the logic executing behind proxy, the address
	// custody and feed settings belong to
	Build func(proxy domain.Address) (auction.Logic, error)
}

// ParsedAbi checks the descriptor is well formed.
func (a *Artifact) ParsedAbi() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(a.Abi))
}

// ArtifactRegistry resolves versions to artifacts and installed addresses to
// running logic.
type ArtifactRegistry interface {
	// Artifact returns an error wrapping domain.ErrImplementationLoad when the
	// version is unknown or its descriptor does not parse
	Artifact(c ctx.Ctx, v Version) (*Artifact, error)
	// Install registers the logic of artifact a under impl
	Install(c ctx.Ctx, a *Artifact, impl domain.Address) error
	// Logic returns the logic installed at impl running on behalf of proxy,
	// domain.ErrNotFound if nothing is installed there
	Logic(c ctx.Ctx, proxy, impl domain.Address) (auction.Logic, error)
}

func LoadError(v Version, cause error) error {
	return xerrors.Errorf("load %s: %v: %w", v, cause, domain.ErrImplementationLoad)
}

// CacheError carries the cache location so the operator can repair it.
type CacheError struct {
	Location string
	Err      error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("deployment cache %s: %v", e.Location, e.Err)
}

func (e *CacheError) Is(target error) bool {
	return target == domain.ErrCachePersistenceFailed
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
