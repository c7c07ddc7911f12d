// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's board identity. The board has no
// authentication of its own: the identity is whatever the client sends in
// X-User-ID, which is also the author name recorded on messages and the
// name other users report.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller's identity.
	HeaderUserID = "X-User-ID"

	// ctxKeyUserID is the Gin context key holding the resolved identity.
	ctxKeyUserID = "userID"

	// maxUserIDLen caps identity length to keep logs and label sets sane.
	maxUserIDLen = 128
)

// Identity copies a trimmed, non-empty X-User-ID into the Gin context so
// that loggers, the rate limiter and handlers agree on who is calling. It
// never rejects a request; use RequireIdentity on routes that need one.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" && len(id) <= maxUserIDLen {
			c.Set(ctxKeyUserID, id)
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 when Identity found no usable X-User-ID.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "X-User-ID header required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the identity stored by Identity, or "".
func UserID(c *gin.Context) string {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
