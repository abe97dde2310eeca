package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and, when metrics are enabled, /metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the staff auth routes.  Register, login, refresh
// and logout need no session; /v1/me does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if limit != nil {
		mws = append(mws, limit)
	}
	g := e.Group("/v1/auth", mws...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, mws...)...)
}

// StaffMiddleware is the chain applied to every reservation and table
// route, in order: auth, rate limit, list cache, cache invalidation.
type StaffMiddleware struct {
	RateLimit  echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

// RegisterStaff registers the reservation and table routes under /v1.
// Every route requires a HOST or MANAGER token; creating tables requires
// MANAGER.
func RegisterStaff(e *echo.Echo, r *handler.ReservationHandler, t *handler.TableHandler, jwtSecret string, mw StaffMiddleware) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleHost, model.RoleManager),
	)
	for _, m := range []echo.MiddlewareFunc{mw.RateLimit, mw.Cache, mw.Invalidate} {
		if m != nil {
			g.Use(m)
		}
	}

	// ---- Reservations ----
	g.GET("/reservations", r.List)
	g.POST("/reservations", r.Create)
	g.GET("/reservations/:id", r.Get)
	g.PUT("/reservations/:id", r.Update)
	g.PUT("/reservations/:id/status", r.SetStatus)

	// ---- Tables ----
	g.GET("/tables", t.List)
	g.POST("/tables", t.Create, middleware.RequireRole(model.RoleManager))
	g.GET("/tables/:id", t.Get)
	g.PUT("/tables/:id/seat", t.Seat)
	g.DELETE("/tables/:id/seat", t.Clear)
}

// NotFound keeps unknown routes in the API's error shape.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found", "reason": "not_found"})
}
