package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/base/metrics"
)

// HeaderCaller is set by the gateway once it has verified the signature of
// the caller.
const HeaderCaller = "X-Caller-Address"

// GoMiddleware represent the data-struct for middleware
type GoMiddleware struct {
	timeout time.Duration
}

// InitMiddleware initialize the middleware. timeout bounds every request
// context, zero leaves it unbounded.
func InitMiddleware(timeout time.Duration) *GoMiddleware {
	return &GoMiddleware{timeout: timeout}
}

// CORS will handle the CORS middleware
func (m *GoMiddleware) CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		return next(c)
	}
}

// AddContext puts a ctx.Ctx carrying the request id and caller into echo
func (m *GoMiddleware) AddContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			cont := ctx.WithValues(ctx.Background(), map[string]interface{}{
				"requestID": c.Response().Header().Get(echo.HeaderXRequestID),
				"caller":    c.Request().Header.Get(HeaderCaller),
			})
			if m.timeout > 0 {
				var cancel func()
				cont, cancel = ctx.WithTimeout(cont, m.timeout)
				defer cancel()
			}
			c.Set("ctx", cont)
			return next(c)
		}
	}
}

// ResponseLogger logs response for every request
func (m *GoMiddleware) ResponseLogger() echo.MiddlewareFunc {
	met := metrics.New("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer met.BumpTime("request.time", "method", c.Request().Method, "path", c.Path()).End()

			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			fields := log.Fields{
				"ms":         time.Since(start).Seconds() * 1000,
				"httpStatus": res.Status,
				"host":       req.Host,
				"remoteIP":   c.RealIP(),
				"uri":        req.URL.Path,
				"httpMethod": req.Method,
				"size":       res.Size,
				"userAgent":  req.UserAgent(),
			}

			if res.Status >= 400 {
				fields["nextErr"] = err
				met.BumpSum("request.fail", 1, "path", c.Path(), "status", statusClass(res.Status))
			}

			c.Get("ctx").(ctx.Ctx).WithFields(fields).Info("response")
			return nil
		}
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	default:
		return "4xx"
	}
}
