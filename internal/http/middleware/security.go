// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The board serves JSON only, apart from
// the optional Swagger UI, so every API response is locked down as a
// non-renderable, non-cacheable document: board state changes on every write
// and a cached page or score would be stale immediately.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultHSTSMaxAge applies when HSTS is on but no lifetime was configured.
const defaultHSTSMaxAge = 180 * 24 * time.Hour

// apiCSP forbids rendering anything from a JSON response.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Only set
	// it when traffic is HTTPS end-to-end, proxy hop included.
	EnableHSTS bool
	HSTSMaxAge time.Duration

	// DocsPrefix is the path prefix of the Swagger UI, which needs scripts
	// and may be cached. Empty means no docs are mounted.
	DocsPrefix string
}

// SecurityHeaders returns a Gin middleware that hardens every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	Content-Security-Policy: default-src 'none'; frame-ancestors 'none'   (API only)
//	Cache-Control: no-store                                              (API only)
//	Strict-Transport-Security: max-age=N; includeSubDomains               (HTTPS, opt-in)
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if !isDocs(c.Request.URL.Path, opt.DocsPrefix) {
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cache-Control", "no-store")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}

func isDocs(path, prefix string) bool {
	return prefix != "" && strings.HasPrefix(path, prefix)
}

// isHTTPS reports whether the request arrived over TLS, directly or via a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
