package repository

import (
	"sync"

	"github.com/x-xyz/auctionproxy/base/abi"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/stores/auction/usecase"
	"golang.org/x/xerrors"
)

const (
	ArtifactNameV1 = "NftAuction"
	ArtifactNameV2 = "NftAuctionV2"
)

type ArtifactRegistry struct {
	mu        sync.RWMutex
	artifacts map[deployment.Version]*deployment.Artifact
	installed map[domain.Address]*deployment.Artifact
	built     map[string]auction.Logic
}

var _ deployment.ArtifactRegistry = (*ArtifactRegistry)(nil)

// NewArtifactRegistry knows the V1 and V2 engines. engine is the template
// each installed logic is built from, its Proxy is filled per proxy.
func NewArtifactRegistry(engine usecase.EngineCfg) *ArtifactRegistry {
	r := &ArtifactRegistry{
		artifacts: make(map[deployment.Version]*deployment.Artifact),
		installed: make(map[domain.Address]*deployment.Artifact),
		built:     make(map[string]auction.Logic),
	}
	r.Register(&deployment.Artifact{
		Name:    ArtifactNameV1,
		Version: deployment.VersionV1,
		Abi:     abi.NftAuctionV1ABI,
		Build: func(proxy domain.Address) (auction.Logic, error) {
			cfg := engine
			cfg.Proxy = proxy
			return usecase.NewV1(&cfg), nil
		},
	})
	r.Register(&deployment.Artifact{
		Name:    ArtifactNameV2,
		Version: deployment.VersionV2,
		Abi:     abi.NftAuctionV2ABI,
		Build: func(proxy domain.Address) (auction.Logic, error) {
			cfg := engine
			cfg.Proxy = proxy
			return usecase.NewV2(&cfg), nil
		},
	})
	return r
}

// Register adds or replaces the artifact of a.Version.
func (r *ArtifactRegistry) Register(a *deployment.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[a.Version] = a
}

func (r *ArtifactRegistry) Artifact(c ctx.Ctx, v deployment.Version) (*deployment.Artifact, error) {
	r.mu.RLock()
	a, ok := r.artifacts[v]
	r.mu.RUnlock()
	if !ok {
		return nil, deployment.LoadError(v, xerrors.New("no artifact for version"))
	}
	if _, err := a.ParsedAbi(); err != nil {
		return nil, deployment.LoadError(v, err)
	}
	if a.Build == nil {
		return nil, deployment.LoadError(v, xerrors.New("artifact has no code"))
	}
	return a, nil
}

func (r *ArtifactRegistry) Install(c ctx.Ctx, a *deployment.Artifact, impl domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	impl = impl.ToLower()
	if cur, ok := r.installed[impl]; ok && cur != a {
		return xerrors.Errorf("%s already holds %s %s: %w", impl, cur.Name, cur.Version, domain.ErrAlreadyExists)
	}
	r.installed[impl] = a
	return nil
}

func (r *ArtifactRegistry) Logic(c ctx.Ctx, proxy, impl domain.Address) (auction.Logic, error) {
	key := proxy.ToLowerStr() + "/" + impl.ToLowerStr()

	r.mu.RLock()
	l, ok := r.built[key]
	a, installed := r.installed[impl.ToLower()]
	r.mu.RUnlock()
	if ok {
		return l, nil
	}
	if !installed {
		return nil, domain.ErrNotFound
	}

	l, err := a.Build(proxy)
	if err != nil {
		return nil, deployment.LoadError(a.Version, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.built[key]; ok {
		return cur, nil
	}
	r.built[key] = l
	return l, nil
}
