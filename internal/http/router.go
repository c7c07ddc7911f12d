// Package httpapi wires the HTTP transport (Gin) to the board services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, identity, logging/redaction, panic recovery,
// metrics, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-message-board/docs"
	"github.com/tbourn/go-message-board/internal/config"
	"github.com/tbourn/go-message-board/internal/http/handlers"
	"github.com/tbourn/go-message-board/internal/http/middleware"
	"github.com/tbourn/go-message-board/internal/repo"
	"github.com/tbourn/go-message-board/internal/services"
)

// idempotencyStore adapts the repo free functions to
// middleware.IdempotencyStore.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup proxies repo.GetIdempotency; a missing record is not an error.
func (s idempotencyStore) Lookup(ctx context.Context, userID, route, key string, now time.Time) (middleware.StoredResponse, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, route, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return middleware.StoredResponse{}, false, nil
	}
	if err != nil {
		return middleware.StoredResponse{}, false, err
	}
	return middleware.StoredResponse{Status: rec.Status, Body: rec.Body}, true, nil
}

// Save proxies repo.CreateIdempotency.
func (s idempotencyStore) Save(ctx context.Context, userID, route, key string, resp middleware.StoredResponse) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, route, key, resp.Status, resp.Body, s.ttl)
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. Commands reach the store through mailbox; db backs idempotent
// replays and may be nil to disable them.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve X-User-ID for logs, limits and handlers
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency (before the rate limiter so replays cost no tokens)
//  9. Rate limiter (per user/IP)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, mailbox services.Mailbox, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	// 64 KiB is plenty for a message body.
	r.Use(limitBody(64 << 10))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var idem middleware.IdempotencyStore
	if db != nil {
		idem = idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	}
	r.Use(middleware.Idempotency(middleware.IdempotencyOptions{MaxLen: 200}, idem))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	sec := middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}
	if cfg.SwaggerEnabled {
		sec.DocsPrefix = "/swagger/"
	}
	r.Use(middleware.SecurityHeaders(sec))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	board := services.NewBoard(mailbox, cfg.RequestTimeout, cfg.MaxTextRunes)
	h := handlers.New(
		&services.MessageService{Board: board},
		&services.ReactionService{Board: board},
		&services.ReportService{Board: board},
	)

	api := groupWithPrefix(r, cfg.APIBasePath)

	reads := api.Group("", gzip.Gzip(gzip.DefaultCompression))
	{
		reads.GET("/messages", h.ListMessages)
		reads.GET("/messages/search", h.SearchMessages)
	}

	writes := api.Group("", middleware.RequireIdentity())
	{
		writes.POST("/messages", h.PostMessage)
		writes.PUT("/messages/:id", h.EditMessage)
		writes.DELETE("/messages/:id", h.DeleteMessage)

		writes.POST("/messages/:id/likes", h.LikeMessage)
		writes.DELETE("/messages/:id/likes", h.UnlikeMessage)
		writes.POST("/messages/:id/dislikes", h.DislikeMessage)
		writes.DELETE("/messages/:id/dislikes", h.UndislikeMessage)
		writes.POST("/messages/:id/reactions", h.ReactToMessage)

		writes.POST("/users/:name/reports", h.ReportUser)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
