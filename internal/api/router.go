package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ednar28/user-admin/docs"
	"github.com/ednar28/user-admin/internal/api/handler"
	"github.com/ednar28/user-admin/internal/api/middleware"
	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
	"github.com/ednar28/user-admin/internal/infrastructure/http/handlers"
)

// Deps is everything the router needs. Services are built by the caller.
type Deps struct {
	Auth         ports.AuthService
	Users        ports.UserService
	Audit        ports.AuditReader
	LoginLimiter ports.RateLimiter
	Checkers     []handlers.Checker
	Log          zerolog.Logger

	// EnforcePermissions gates the directory behind manage_users.
	EnforcePermissions bool

	// TrustedProxies are the peers allowed to name the client in
	// X-Forwarded-For. With none, the client IP is the TCP peer address.
	TrustedProxies []*net.IPNet

	// Registerer and Gatherer back the HTTP metrics and /metrics. When nil a
	// private registry is used, which keeps repeated router builds in tests
	// from colliding on the default one.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = ipExtractor(d.TrustedProxies)

	if d.Registerer == nil || d.Gatherer == nil {
		reg := prometheus.NewRegistry()
		d.Registerer, d.Gatherer = reg, reg
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "user_admin",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/swagger/*"
		},
	}))
	// Inside the metrics middleware so domain errors are already rendered
	// and recorded with their real status.
	e.Use(requestLogger(d.Log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users, d.Audit)
	auth := middleware.Auth(d.Auth)

	// --- Auth routes ---
	login := []echo.MiddlewareFunc{}
	if d.LoginLimiter != nil {
		login = append(login, middleware.Throttle(d.LoginLimiter, d.Log))
	}
	e.POST("/login", authHandler.Login, login...)
	e.POST("/logout", authHandler.Logout, auth)

	// --- User directory ---
	users := e.Group("/user", auth)
	if d.EnforcePermissions {
		users.Use(middleware.RequirePermission(d.Auth, domain.PermissionManageUsers))
	}
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
	users.GET("/:id/audit", userHandler.Audit)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checkers...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// ipExtractor decides what c.RealIP reports, and so what the login throttle
// counts against. Forwarding headers are ignored unless the peer is one of the
// trusted proxies.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
