package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/homerecords/beatstore/internal/handler"    // import the handlers that implement business logic
    "github.com/homerecords/beatstore/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems probe this endpoint.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the admin login route.  There is no registration
// or refresh flow: the shop has a single admin account configured via
// environment variables, and access tokens simply expire.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
    g := e.Group("/v1/auth")
    g.POST("/login", a.Login)
}

// RegisterPublic registers the unauthenticated catalog endpoints.  The
// cache middleware, when enabled, serves repeat browses straight from
// Redis.
func RegisterPublic(e *echo.Echo, b *handler.BeatHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache)
    }
    // Browse and search available beats
    g.GET("/beats", b.ListBeats)
    // Beat details by id
    g.GET("/beats/:id", b.GetBeat)
}

// RegisterPayment registers the purchase endpoints.  The rate limiter,
// when enabled, shields the payment gateway from request bursts.  None of
// these routes require authentication; the gateway's own verification of
// the payment intent is what authorizes a settlement.
func RegisterPayment(e *echo.Echo, p *handler.PaymentHandler, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/payment")
    if limiter != nil {
        g.Use(limiter)
    }
    g.GET("/config", p.Config)
    g.POST("/intent", p.CreateIntent)
    g.POST("/confirm", p.Confirm)
}

// RegisterAdmin registers the management endpoints.  All routes in this
// group require a valid access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, ab *handler.AdminBeatHandler, p *handler.PaymentHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("ADMIN"))
    // Publish a new beat listing
    g.POST("/beats", ab.CreateBeat)
    // Retire a listing; settled sales are kept
    g.DELETE("/beats/:id", ab.DeleteBeat)
    // Recent sales report
    g.GET("/sales", p.Sales)
}
