package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/delivery"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	auctionHttp "github.com/x-xyz/auctionproxy/stores/auction/delivery/http"
)

type handler struct {
	coordinator deployment.Coordinator
}

func New(e *echo.Echo, coordinator deployment.Coordinator) {
	h := &handler{coordinator}

	g := e.Group("/deployment")
	g.GET("", h.status)
	g.POST("/feed", h.setFeed)
}

type statusView struct {
	Record *deployment.Record     `json:"record"`
	Proxy  *deployment.ProxyState `json:"proxy"`
}

func (h *handler) status(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	rec, state, err := h.coordinator.Status(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, statusView{rec, state})
}

func (h *handler) setFeed(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type payload struct {
		Feed string `json:"feed" validate:"required,eth_addr"`
	}

	caller, err := auctionHttp.Caller(c)
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

	rec, err := h.coordinator.SetFeed(ctx, caller, domain.Address(p.Feed))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, rec)
}
