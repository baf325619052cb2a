package deployment

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/domain"
)

type deploymentSuite struct {
	suite.Suite
}

func TestDeployment(t *testing.T) {
	suite.Run(t, new(deploymentSuite))
}

func (s *deploymentSuite) TestVersionNext() {
	next, err := VersionV1.Next()
	s.NoError(err)
	s.Equal(VersionV2, next)

	next, err = VersionV2.Next()
	s.NoError(err)
	s.Equal(Version("V3"), next)

	_, err = Version("2").Next()
	s.Error(err)
	_, err = Version("V0").Next()
	s.Error(err)
}

func (s *deploymentSuite) TestAddressesDeterministic() {
	deployer := domain.Address("0x6a7a5a1e8a3c3f3b2a9e4a1f0c7d8e9f0a1b2c3d")
	s.Equal(ProxyAddress(deployer, 0), ProxyAddress(deployer, 0))
	s.NotEqual(ProxyAddress(deployer, 0), ProxyAddress(deployer, 1))

	v1 := &Artifact{Name: "NftAuction", Version: VersionV1, Abi: "[]"}
	v2 := &Artifact{Name: "NftAuctionV2", Version: VersionV2, Abi: "[]"}
	s.Equal(ImplementationAddress(deployer, v1), ImplementationAddress(deployer, v1))
	s.NotEqual(ImplementationAddress(deployer, v1), ImplementationAddress(deployer, v2))
	s.Len(string(ImplementationAddress(deployer, v1)), 42)
}

func (s *deploymentSuite) TestRecordClone() {
	feed := domain.Address("0xfeed")
	r := &Record{Version: VersionV1, OracleFeedAddress: &feed}
	cp := r.Clone()
	*cp.OracleFeedAddress = "0xother"
	s.Equal(domain.Address("0xfeed"), *r.OracleFeedAddress)
}

func (s *deploymentSuite) TestCacheErrorIs() {
	err := &CacheError{Location: "/tmp/x.json", Err: domain.ErrInternalServerError}
	s.ErrorIs(err, domain.ErrCachePersistenceFailed)
	s.ErrorIs(err, domain.ErrInternalServerError)
	s.Contains(err.Error(), "/tmp/x.json")
}

func (s *deploymentSuite) TestLoadError() {
	err := LoadError(VersionV2, domain.ErrNotFound)
	s.ErrorIs(err, domain.ErrImplementationLoad)
	s.Contains(err.Error(), "V2")
}
