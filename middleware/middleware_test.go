package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/ctx"
)

type middlewareSuite struct {
	suite.Suite
}

func TestMiddleware(t *testing.T) {
	suite.Run(t, new(middlewareSuite))
}

func (s *middlewareSuite) TestAddContext() {
	e := echo.New()
	m := InitMiddleware(time.Second)
	e.Use(m.AddContext(), m.ResponseLogger())

	var seen ctx.Ctx
	e.GET("/", func(c echo.Context) error {
		seen = c.Get("ctx").(ctx.Ctx)
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCaller, "0x00000000000000000000000000000000000000a1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("0x00000000000000000000000000000000000000a1", seen.Value("caller"))
	_, ok := seen.Deadline()
	s.True(ok)
}

func (s *middlewareSuite) TestResponseLoggerKeepsErrorStatus() {
	e := echo.New()
	m := InitMiddleware(0)
	e.Use(m.AddContext(), m.ResponseLogger())
	e.GET("/", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusTeapot, rec.Code)
}

func (s *middlewareSuite) TestCORS() {
	e := echo.New()
	m := InitMiddleware(0)
	e.Use(m.CORS)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}
