package delivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/domain"
	"golang.org/x/xerrors"
)

type httpSuite struct {
	suite.Suite
}

func TestHttp(t *testing.T) {
	suite.Run(t, new(httpSuite))
}

func (s *httpSuite) TestStatusOf() {
	wrapped := xerrors.Errorf("auction 3: %w", domain.ErrBidTooLow)
	s.Equal(http.StatusConflict, StatusOf(wrapped))
	s.Equal(http.StatusNotFound, StatusOf(domain.ErrAuctionNotFound))
	s.Equal(http.StatusServiceUnavailable, StatusOf(domain.ErrOracleUnavailable))
	s.Equal(http.StatusInternalServerError, StatusOf(domain.ErrCachePersistenceFailed))
}

func (s *httpSuite) TestMakeJsonRespError() {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	s.NoError(MakeJsonResp(c, http.StatusInternalServerError, domain.ErrAuctionEnded))
	s.Equal(http.StatusConflict, rec.Code)

	resp := JsonResponse{}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(JsonResponseStatusFail, resp.Status)
	s.Equal(domain.ErrAuctionEnded.Error(), resp.Data)
}

func (s *httpSuite) TestMakeJsonRespSuccess() {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	s.NoError(MakeJsonResp(c, http.StatusOK, map[string]int{"id": 1}))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"success"`)
}
