package http

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/delivery"
	"github.com/x-xyz/auctionproxy/base/validator"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"golang.org/x/xerrors"
)

// HeaderCaller carries the address the gateway authenticated.
const HeaderCaller = "X-Caller-Address"

// longest duration in seconds that still fits a time.Duration
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

type handler struct {
	auction auction.Usecase
}

func New(e *echo.Echo, us auction.Usecase) {
	h := &handler{us}

	g := e.Group("/auctions")
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.POST("/:id/bids", h.bid)
	g.POST("/:id/end", h.end)
}

type auctionView struct {
	*auction.Auction
	State  auction.State `json:"state"`
	EndsAt time.Time     `json:"endsAt"`
}

func toView(a *auction.Auction) auctionView {
	return auctionView{a, a.State(), a.EndsAt()}
}

// Caller reads and checks the caller address header.
func Caller(c echo.Context) (domain.Address, error) {
	h := c.Request().Header.Get(HeaderCaller)
	if h == "" {
		return "", xerrors.Errorf("missing %s: %w", HeaderCaller, domain.ErrUnauthorized)
	}
	if !validator.IsValidAddress(h) {
		return "", xerrors.Errorf("%s %q: %w", HeaderCaller, h, domain.ErrInvalidAddress)
	}
	return domain.Address(h).ToLower(), nil
}

func auctionId(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("auction id %q: %w", c.Param("id"), domain.ErrBadParamInput)
	}
	return id, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type payload struct {
		Collection string `json:"collection" validate:"required,eth_addr"`
		TokenId    string `json:"tokenId" validate:"required,number"`
		// seconds
		Duration   int64  `json:"duration" validate:"gt=0"`
		StartPrice string `json:"startPrice" validate:"required,amount"`
	}

	seller, err := Caller(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	p := payload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	if p.Duration > maxDurationSeconds {
		err := xerrors.Errorf("duration %d over %d seconds: %w", p.Duration, maxDurationSeconds, domain.ErrInvalidParameters)
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	a, err := h.auction.CreateAuction(ctx, auction.CreateParams{
		Seller: seller,
		Asset: auction.AssetRef{
			Collection: domain.Address(p.Collection).ToLower(),
			TokenId:    domain.TokenId(p.TokenId),
		},
		Duration:   time.Duration(p.Duration) * time.Second,
		StartPrice: decimal.RequireFromString(p.StartPrice),
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, toView(a))
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := auctionId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	a, err := h.auction.Auction(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toView(a))
}

func (h *handler) bid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type payload struct {
		Amount   string `json:"amount" validate:"required,amount"`
		Currency string `json:"currency" validate:"currency"`
	}

	bidder, err := Caller(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	id, err := auctionId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	p := payload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}

	currency := auction.CurrencyNative
	if p.Currency != "" {
		if currency, err = auction.ParseCurrencyMode(p.Currency); err != nil {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
		}
	}

	a, err := h.auction.Bid(ctx, auction.BidParams{
		AuctionId: id,
		Bidder:    bidder,
		Amount:    decimal.RequireFromString(p.Amount),
		Currency:  currency,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toView(a))
}

func (h *handler) end(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	caller, err := Caller(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	id, err := auctionId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	a, err := h.auction.End(ctx, caller, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toView(a))
}
