package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
	bValidator "github.com/x-xyz/auctionproxy/base/validator"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/auction/mocks"
	"golang.org/x/xerrors"
)

const (
	seller     = "0x00000000000000000000000000000000000000a1"
	bidder     = "0x00000000000000000000000000000000000000b1"
	collection = "0x00000000000000000000000000000000000000c1"
)

type handlerSuite struct {
	suite.Suite

	e       *echo.Echo
	usecase *mocks.Usecase
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
	s.usecase = mocks.NewUsecase(s.T())
	New(s.e, s.usecase)
}

func (s *handlerSuite) do(method, path, caller, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != "" {
		req.Header.Set(HeaderCaller, caller)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func sample() *auction.Auction {
	a := &auction.Auction{}
	a.Id = 0
	a.Seller = seller
	a.Asset = auction.AssetRef{Collection: collection, TokenId: "1"}
	a.StartPrice = decimal.RequireFromString("0.01")
	a.Duration = 1000 * time.Second
	a.StartTime = time.Unix(1700000000, 0).UTC()
	a.Schema = auction.SchemaV1
	return a
}

func (s *handlerSuite) TestCreate() {
	s.usecase.On("CreateAuction", mock.Anything, auction.CreateParams{
		Seller:     seller,
		Asset:      auction.AssetRef{Collection: collection, TokenId: "1"},
		Duration:   1000 * time.Second,
		StartPrice: decimal.RequireFromString("0.01"),
	}).Return(sample(), nil).Once()

	rec := s.do(http.MethodPost, "/auctions", seller, `{"collection":"`+collection+`","tokenId":"1","duration":1000,"startPrice":"0.01"}`)
	s.Equal(http.StatusCreated, rec.Code)

	res := struct {
		Data struct {
			Id     uint64 `json:"id"`
			State  string `json:"state"`
			Seller string `json:"seller"`
		} `json:"data"`
		Status string `json:"status"`
	}{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	s.Equal("success", res.Status)
	s.Equal("created", res.Data.State)
	s.Equal(seller, res.Data.Seller)
}

func (s *handlerSuite) TestCreateInvalid() {
	for _, body := range []string{
		`{"collection":"0x01","tokenId":"1","duration":1000,"startPrice":"0.01"}`,
		`{"collection":"` + collection + `","tokenId":"x","duration":1000,"startPrice":"0.01"}`,
		`{"collection":"` + collection + `","tokenId":"1","duration":0,"startPrice":"0.01"}`,
		`{"collection":"` + collection + `","tokenId":"1","duration":1000,"startPrice":"-1"}`,
	} {
		rec := s.do(http.MethodPost, "/auctions", seller, body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
	}
}

func (s *handlerSuite) TestCreateDurationBounds() {
	// 18446744074s wraps to a fraction of a second as a time.Duration
	rec := s.do(http.MethodPost, "/auctions", seller, `{"collection":"`+collection+`","tokenId":"1","duration":18446744074,"startPrice":"0.01"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/auctions", seller, `{"collection":"`+collection+`","tokenId":"1","duration":9223372037,"startPrice":"0.01"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	s.usecase.On("CreateAuction", mock.Anything, mock.MatchedBy(func(p auction.CreateParams) bool {
		return p.Duration == 9223372036*time.Second
	})).Return(sample(), nil).Once()
	rec = s.do(http.MethodPost, "/auctions", seller, `{"collection":"`+collection+`","tokenId":"1","duration":9223372036,"startPrice":"0.01"}`)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *handlerSuite) TestCreateAlreadyListed() {
	s.usecase.On("CreateAuction", mock.Anything, mock.Anything).Return(nil, xerrors.Errorf("listed: %w", domain.ErrAlreadyExists)).Once()
	rec := s.do(http.MethodPost, "/auctions", seller, `{"collection":"`+collection+`","tokenId":"1","duration":1000,"startPrice":"0.01"}`)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *handlerSuite) TestCallerRequired() {
	rec := s.do(http.MethodPost, "/auctions/0/bids", "", `{"amount":"1"}`)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/auctions/0/bids", "0x1234", `{"amount":"1"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *handlerSuite) TestGet() {
	s.usecase.On("Auction", mock.Anything, uint64(0)).Return(sample(), nil).Once()
	s.usecase.On("Auction", mock.Anything, uint64(7)).Return(nil, xerrors.Errorf("auction 7: %w", domain.ErrAuctionNotFound)).Once()

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/auctions/0", "", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/auctions/7", "", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/auctions/abc", "", "").Code)
}

func (s *handlerSuite) TestBid() {
	s.usecase.On("Bid", mock.Anything, auction.BidParams{
		AuctionId: 0,
		Bidder:    bidder,
		Amount:    decimal.RequireFromString("0.02"),
		Currency:  auction.CurrencyNative,
	}).Return(sample(), nil).Once()
	s.usecase.On("Bid", mock.Anything, mock.MatchedBy(func(p auction.BidParams) bool {
		return p.Currency == auction.CurrencyOracle
	})).Return(nil, domain.ErrOracleUnavailable).Once()
	s.usecase.On("Bid", mock.Anything, mock.MatchedBy(func(p auction.BidParams) bool {
		return p.Amount.Equal(decimal.RequireFromString("0.015"))
	})).Return(nil, xerrors.Errorf("0.015 <= 0.02: %w", domain.ErrBidTooLow)).Once()

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/auctions/0/bids", bidder, `{"amount":"0.02"}`).Code)
	s.Equal(http.StatusServiceUnavailable, s.do(http.MethodPost, "/auctions/0/bids", bidder, `{"amount":"1","currency":"oracle"}`).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/auctions/0/bids", bidder, `{"amount":"0.015"}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/auctions/0/bids", bidder, `{"amount":"1","currency":"usd"}`).Code)
}

func (s *handlerSuite) TestEnd() {
	ended := sample()
	ended.Ended = true
	s.usecase.On("End", mock.Anything, domain.Address(bidder), uint64(0)).Return(ended, nil).Once()
	s.usecase.On("End", mock.Anything, domain.Address(bidder), uint64(1)).Return(nil, domain.ErrAuctionEnded).Once()

	rec := s.do(http.MethodPost, "/auctions/0/end", bidder, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"state":"ended"`)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/auctions/1/end", bidder, "").Code)
}
