// Package httpapi exposes the storefront, admin, and auth page controllers over HTTP.
// Page instances are created per browser tab and addressed by id; failures are
// RFC 7807 problem documents.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Apurer/go-order-console/internal/pages"
	"github.com/Apurer/go-order-console/internal/pages/admin"
	"github.com/Apurer/go-order-console/internal/pages/storefront"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

// Options configures the router.
type Options struct {
	ServiceName    string
	AllowedOrigins []string
	// ProblemBaseURI prefixes relative problem type URIs.
	ProblemBaseURI string
	Storefront     storefront.Deps
	Admin          admin.Deps
	Logger         *slog.Logger
}

// Server owns the live page instances.
type Server struct {
	storefronts *pages.Registry[*storefront.Page]
	admins      *pages.Registry[*admin.Page]

	storefrontDeps storefront.Deps
	adminDeps      admin.Deps
	responder      *apierrors.Responder
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewServer builds an empty server; pages are opened by the clients.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		storefronts:    pages.NewRegistry[*storefront.Page](),
		admins:         pages.NewRegistry[*admin.Page](),
		storefrontDeps: opts.Storefront,
		adminDeps:      opts.Admin,
		responder:      apierrors.NewResponder(opts.ProblemBaseURI, apierrors.ProblemFor),
		upgrader:       websocket.Upgrader{CheckOrigin: originChecker(opts.AllowedOrigins)},
		logger:         logger,
	}
}

// Close ends every page instance.
func (s *Server) Close() {
	s.storefronts.CloseAll()
	s.admins.CloseAll()
}

// PurgeIdle closes page instances nobody has used for ttl, checking every interval, until
// ctx is done. Tabs that vanish without closing their session are reclaimed this way.
func (s *Server) PurgeIdle(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.purgeIdle(ctx, now.Add(-ttl))
		}
	}
}

func (s *Server) purgeIdle(ctx context.Context, cutoff time.Time) int {
	storefronts := s.storefronts.PurgeIdle(cutoff)
	admins := s.admins.PurgeIdle(cutoff)
	if storefronts+admins > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "purged idle page instances",
			slog.Int("storefronts", storefronts), slog.Int("admins", admins))
	}
	return storefronts + admins
}

// NewRouter wires the HTTP routes. CORS is enabled only when origins are configured.
func NewRouter(s *Server, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.NoRoute(func(c *gin.Context) {
		s.responder.Respond(c, apierrors.ProblemNotFound.WithDetail("No route for "+c.Request.Method+" "+c.Request.URL.Path))
	})

	api := router.Group("/api")

	shop := api.Group("/storefront")
	shop.POST("/sessions", s.OpenStorefront)
	shop.DELETE("/sessions/:sid", s.CloseStorefront)
	shopSession := shop.Group("/sessions/:sid")
	shopSession.GET("/catalog", s.Catalog)
	shopSession.POST("/focus", s.Focus)
	shopSession.GET("/cart", s.Cart)
	shopSession.POST("/cart/items", s.AddToCart)
	shopSession.POST("/cart/items/:pid/increment", s.IncrementLine)
	shopSession.POST("/cart/items/:pid/decrement", s.DecrementLine)
	shopSession.DELETE("/cart/items/:pid", s.RemoveLine)
	shopSession.POST("/checkout", s.Checkout)
	shopSession.GET("/recent-orders", s.RecentOrders)
	shopSession.GET("/track/:orderId", s.Track)
	shopSession.GET("/events", s.StorefrontEvents)

	console := api.Group("/admin")
	console.POST("/sessions", s.OpenAdmin)
	console.DELETE("/sessions/:sid", s.CloseAdmin)
	consoleSession := console.Group("/sessions/:sid")
	consoleSession.POST("/focus", s.AdminFocus)
	consoleSession.GET("/orders", s.ListOrders)
	consoleSession.POST("/orders", s.CreateOrder)
	consoleSession.PATCH("/orders/:id/status", s.SetOrderStatus)
	consoleSession.PATCH("/orders/:id/cancel", s.CancelOrder)
	consoleSession.DELETE("/orders/:id", s.DeleteOrder)
	consoleSession.POST("/orders/:id/edit", s.BeginEdit)
	consoleSession.GET("/edit", s.CurrentEdit)
	consoleSession.PUT("/edit", s.SaveEdit)
	consoleSession.DELETE("/edit", s.CancelEdit)
	consoleSession.GET("/products", s.ListProducts)
	consoleSession.POST("/products", s.CreateProduct)
	consoleSession.GET("/events", s.AdminEvents)

	auth := api.Group("/auth")
	auth.GET("/login-notice", s.LoginNotice)
	auth.GET("/register-notice", s.RegistrationNotice)
	auth.POST("/register/check", s.CheckRegistration)

	return router
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
