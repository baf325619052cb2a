package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	bValidator "github.com/x-xyz/auctionproxy/base/validator"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/deployment/mocks"
	auctionHttp "github.com/x-xyz/auctionproxy/stores/auction/delivery/http"
)

const (
	admin = "0x00000000000000000000000000000000000000ad"
	feed  = "0x694aa1769357215de4fac081bf1f309adc325306"
)

type handlerSuite struct {
	suite.Suite

	e           *echo.Echo
	coordinator *mocks.Coordinator
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) SetupTest() {
	s.e = echo.New()
	s.e.Validator = bValidator.NewCustomValidator(bValidator.New())
	s.e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("ctx", ctx.Background())
			return next(c)
		}
	})
	s.coordinator = mocks.NewCoordinator(s.T())
	New(s.e, s.coordinator)
}

func (s *handlerSuite) do(method, path, caller, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != "" {
		req.Header.Set(auctionHttp.HeaderCaller, caller)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *handlerSuite) TestStatus() {
	s.coordinator.On("Status", mock.Anything).Return(nil, nil, domain.ErrNoPriorDeployment).Once()
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/deployment", "", "").Code)

	rec := &deployment.Record{ProxyAddress: "0x00000000000000000000000000000000000000f1", Version: deployment.VersionV2}
	s.coordinator.On("Status", mock.Anything).Return(rec, &deployment.ProxyState{Implementation: "0x00000000000000000000000000000000000000e2"}, nil).Once()
	res := s.do(http.MethodGet, "/deployment", "", "")
	s.Equal(http.StatusOK, res.Code)
	s.Contains(res.Body.String(), `"version":"V2"`)
	s.Contains(res.Body.String(), `"implementation":"0x00000000000000000000000000000000000000e2"`)
}

func (s *handlerSuite) TestSetFeed() {
	s.coordinator.On("SetFeed", mock.Anything, domain.Address(admin), domain.Address(feed)).
		Return(&deployment.Record{Version: deployment.VersionV2}, nil).Once()
	s.coordinator.On("SetFeed", mock.Anything, domain.Address("0x00000000000000000000000000000000000000b1"), domain.Address(feed)).
		Return(nil, domain.ErrUnauthorized).Once()

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/deployment/feed", admin, `{"feed":"`+feed+`"}`).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/deployment/feed", "0x00000000000000000000000000000000000000b1", `{"feed":"`+feed+`"}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/deployment/feed", admin, `{"feed":"chainlink"}`).Code)
}
