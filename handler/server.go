package handler

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"tasublog/view"
)

// NewServer wires the routes. Reads are public; every mutation needs the
// admin gate cookie.
func NewServer(h *Handler, hub *Hub, renderer echo.Renderer, assetsDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.Log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	}))
	e.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(h.JWTSecret),
		TokenLookup: "cookie:" + cookieName,
		Skipper: func(c echo.Context) bool {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return true
			}
			return c.Path() == "/admin/unlock" || c.Path() == "/admin/lock"
		},
	}))
	e.HTTPErrorHandler = h.errorHandler

	e.GET("/feed", h.Feed)
	e.GET("/events", hub.Serve)
	e.Static("/static", assetsDir)
	e.File("/favicon.ico", assetsDir+"/favicon.ico")

	e.POST("/admin/unlock", h.Unlock)
	e.POST("/admin/lock", h.Lock)
	e.POST("/admin/posts", h.SavePost)
	e.POST("/admin/posts/:id/delete", h.DeletePost)

	e.GET("/*", h.Page)
	return e
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}
	if code != http.StatusNotFound {
		h.Log.Error("request failed", zap.Int("status", code), zap.Error(err))
	}
	page := view.ErrorPage(h.Site, http.StatusText(code))
	if err := c.Render(code, page.Name(), page); err != nil {
		h.Log.Error("rendering error page", zap.Error(err))
		c.String(code, http.StatusText(code))
	}
}
