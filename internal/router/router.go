// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/monitoring"
	"github.com/iliyamo/event-ticket-booking/internal/realtime"
)

// Handlers groups the handler set the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Events  *handler.EventHandler
	Booking *handler.BookingHandler
	Live    *realtime.LiveHandler
}

// Register wires every route. Public catalog reads are rate limited and
// optionally cached; booking writes are JWT-protected; admin endpoints
// are additionally role-gated.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(monitoring.Handler()))

	// Generated ticket artifacts (QR PNGs).
	e.Static("/uploads/qrcodes", cfg.TicketDir)

	auth := e.Group("/v1/auth", limit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Public catalog. The event list tolerates short cache staleness; the
	// per-event seat map must stay fresh and bypasses the cache.
	e.GET("/v1/events", h.Events.List, limit, cache)
	e.GET("/v1/events/:id", h.Events.Get, limit)

	// Live presence channel (WebSocket upgrade, no auth required to watch).
	e.GET("/v1/events/:id/live", h.Live.Serve)

	protected := e.Group("/v1", limit, middleware.JWTAuth(cfg.JWTSecret))
	protected.GET("/me", h.Auth.Me)
	protected.POST("/bookings", h.Booking.Create)
	protected.GET("/bookings", h.Booking.ListMine)
	protected.GET("/bookings/:id", h.Booking.Get)
	protected.PUT("/bookings/:id/cancel", h.Booking.Cancel)

	admin := protected.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/bookings/admin/all", h.Booking.AdminList)
	admin.POST("/events", h.Events.Create)
	admin.PUT("/events/:id", h.Events.Update)
	admin.DELETE("/events/:id", h.Events.Delete)
}
