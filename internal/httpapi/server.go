// Package httpapi exposes the tool surface over HTTP for clients that
// cannot speak stdio. It mirrors the stdio surface exactly: listing and
// calling go through the same server, so both transports stay in sync.
package httpapi

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"juradoc/internal/mcp"
)

// Options configures the HTTP transport.
type Options struct {
	// JWTSecret enables bearer-token auth on /api when non-empty.
	JWTSecret string
	// Metrics exposes /metrics when true.
	Metrics bool
}

type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// New builds the echo application around an already-wired tool server.
func New(tools *mcp.Server, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if opts.Metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	if opts.JWTSecret != "" {
		api.Use(authMiddleware([]byte(opts.JWTSecret)))
	}

	api.GET("/tools", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"tools": tools.Tools()})
	})

	api.POST("/tools/call", func(c echo.Context) error {
		var req callRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		if req.Arguments == nil {
			req.Arguments = map[string]any{}
		}
		// Tool failures come back inside the envelope with HTTP 200, the
		// same contract as the stdio transport.
		return c.JSON(http.StatusOK, tools.CallTool(c.Request().Context(), req.Name, req.Arguments))
	})

	return e
}
