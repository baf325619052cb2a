package repository

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	auctionRepo "github.com/x-xyz/auctionproxy/stores/auction/repository"
	"github.com/x-xyz/auctionproxy/stores/auction/usecase"
	custodyRepo "github.com/x-xyz/auctionproxy/stores/custody/repository"
)

type artifactSuite struct {
	suite.Suite
	im *ArtifactRegistry
}

func TestArtifactRegistry(t *testing.T) {
	suite.Run(t, new(artifactSuite))
}

func (s *artifactSuite) SetupTest() {
	s.im = NewArtifactRegistry(usecase.EngineCfg{
		Repo:        auctionRepo.NewMemory(),
		Custodian:   custodyRepo.NewRegistry(),
		Obligations: custodyRepo.NewObligationMemory(),
		ProxyStore:  NewProxyMemory(),
	})
}

func (s *artifactSuite) TestKnownVersions() {
	c := ctx.Background()
	v1, err := s.im.Artifact(c, deployment.VersionV1)
	s.Require().NoError(err)
	s.Equal(ArtifactNameV1, v1.Name)

	v2, err := s.im.Artifact(c, deployment.VersionV2)
	s.Require().NoError(err)
	s.Equal(ArtifactNameV2, v2.Name)

	_, err = s.im.Artifact(c, "V3")
	s.ErrorIs(err, domain.ErrImplementationLoad)
}

func (s *artifactSuite) TestBrokenAbi() {
	s.im.Register(&deployment.Artifact{
		Name:    "Broken",
		Version: "V3",
		Abi:     `[{"type":"function"`,
		Build:   func(domain.Address) (auction.Logic, error) { return nil, nil },
	})
	_, err := s.im.Artifact(ctx.Background(), "V3")
	s.ErrorIs(err, domain.ErrImplementationLoad)
}

func (s *artifactSuite) TestInstallAndResolve() {
	c := ctx.Background()
	proxy := domain.Address("0x00000000000000000000000000000000000000f1")
	impl := domain.Address("0x00000000000000000000000000000000000000E1")

	_, err := s.im.Logic(c, proxy, impl)
	s.Equal(domain.ErrNotFound, err)

	v1, _ := s.im.Artifact(c, deployment.VersionV1)
	v2, _ := s.im.Artifact(c, deployment.VersionV2)
	s.Require().NoError(s.im.Install(c, v1, impl))
	s.Require().NoError(s.im.Install(c, v1, impl))
	s.ErrorIs(s.im.Install(c, v2, impl), domain.ErrAlreadyExists)

	l, err := s.im.Logic(c, proxy, impl.ToLower())
	s.Require().NoError(err)
	s.False(l.SupportsOracle())

	again, err := s.im.Logic(c, proxy, impl)
	s.Require().NoError(err)
	s.True(l == again)
}
