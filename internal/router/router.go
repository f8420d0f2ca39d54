// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/handler"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register and login
// live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated read side: the month grid,
// single seat details and the list of bookable months.  The grid endpoints
// take an optional token so members see their own protections as bookable.
func RegisterPublic(e *echo.Echo, s *handler.SeatHandler, jwtSecret string) {
	opt := middleware.OptionalJWTAuth(jwtSecret)
	e.GET("/v1/seats", s.GetSeats, opt)
	e.GET("/v1/seats/:seatNumber", s.GetSeat, opt)
	e.GET("/v1/months", s.GetMonths)
}

// RegisterMember registers endpoints available to any authenticated user.
// rl is the rate limiter applied to the write endpoints; pass a no-op
// middleware when limiting is disabled.
func RegisterMember(e *echo.Echo, b *handler.BookingHandler, p *handler.ProtectionHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleMember, model.RoleAdmin))

	g.POST("/bookings", b.Create, rl)
	g.GET("/my-bookings", b.MyBookings)
	g.POST("/protections", p.Create, rl)
	g.GET("/protections/window", p.Window)
}

// RegisterAdmin registers the administrative endpoints.  Every route
// requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, p *handler.ProtectionHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("/bookings", a.CreateBooking)
	g.DELETE("/bookings/:id", a.CancelBooking)
	g.POST("/blocks", a.Block)
	g.DELETE("/blocks", a.Unblock)
	g.POST("/protections/release", p.ReleaseExpired)
}
