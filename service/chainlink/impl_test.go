package chainlink

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/service/cache/provider/primitive"
	mockChain "github.com/x-xyz/auctionproxy/service/chain/mocks"
)

var (
	mockCTX  = ctx.Background()
	feedAddr = domain.Address("0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419")
)

type testsuite struct {
	suite.Suite
	chainClient *mockChain.Client
	chainlink   Chainlink
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (t *testsuite) SetupTest() {
	t.chainClient = &mockChain.Client{}
	t.chainlink = New(t.chainClient, 1, primitive.NewPrimitive("test", 1), time.Minute)
}

func (t *testsuite) TearDownTest() {
	t.chainClient.AssertExpectations(t.T())
}

func (t *testsuite) mockDecimals(d uint8) {
	t.chainClient.
		On("Call", mock.Anything, domain.ChainId(1), feedAddr.Common(), (*big.Int)(nil), mock.Anything, "decimals").
		Return([]interface{}{d}, nil).Once()
}

func (t *testsuite) mockRound(answer int64, updatedAt time.Time) {
	t.chainClient.
		On("Call", mock.Anything, domain.ChainId(1), feedAddr.Common(), (*big.Int)(nil), mock.Anything, "latestRoundData").
		Return([]interface{}{
			big.NewInt(1),
			big.NewInt(answer),
			big.NewInt(updatedAt.Unix()),
			big.NewInt(updatedAt.Unix()),
			big.NewInt(1),
		}, nil).Once()
}

func (t *testsuite) TestLatestRound() {
	updatedAt := time.Unix(1660000000, 0)
	t.mockDecimals(8)
	t.mockRound(334915000000, updatedAt)

	r, err := t.chainlink.LatestRound(mockCTX, feedAddr)
	t.Require().NoError(err)
	t.True(decimal.RequireFromString("3349.15").Equal(r.Answer), r.Answer.String())
	t.Equal(updatedAt, r.UpdatedAt)

	// second read is served from cache, the mocks above are Once
	r, err = t.chainlink.LatestRound(mockCTX, feedAddr)
	t.Require().NoError(err)
	t.True(decimal.RequireFromString("3349.15").Equal(r.Answer))
}

func (t *testsuite) TestLatestRoundCallFailed() {
	errRpc := errors.New("rpc down")
	t.mockDecimals(8)
	t.chainClient.
		On("Call", mock.Anything, domain.ChainId(1), feedAddr.Common(), (*big.Int)(nil), mock.Anything, "latestRoundData").
		Return(nil, errRpc).Once()

	_, err := t.chainlink.LatestRound(mockCTX, feedAddr)
	t.Equal(errRpc, err)
}
