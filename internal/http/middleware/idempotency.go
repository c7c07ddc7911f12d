// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent retries for POST endpoints. A client that
// sends an Idempotency-Key gets, on every retry with the same key, the exact
// status and body of the first successful attempt, without a second command
// reaching the store. Records are scoped by (user, method + path, key), so
// one key may be reused across different messages or routes.
//
// Persistence is delegated to an IdempotencyStore; the repo package provides
// the SQLite-backed implementation.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on replayed responses.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored response was served
)

var idemReplays = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "board",
	Subsystem: "http",
	Name:      "idempotent_replays_total",
	Help:      "Responses served from a stored idempotency record.",
})

func init() {
	prometheus.MustRegister(idemReplays)
}

// StoredResponse is a previously recorded response.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore persists responses for (userID, route, key).
//
// Lookup returns found=false when no unexpired record exists. Save may
// report a duplicate when a concurrent request stored the key first; the
// middleware ignores that case.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, route, key string, now time.Time) (resp StoredResponse, found bool, err error)
	Save(ctx context.Context, userID, route, key string, resp StoredResponse) error
}

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by Idempotency. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether Idempotency served this request from a stored
// response.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for Idempotency.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// Idempotency validates the Idempotency-Key header on POST requests from an
// identified caller, replays a stored response when one exists, and records
// 2xx responses otherwise.
//
// Behavior:
//   - Non-POST requests, requests without the header and anonymous requests
//     pass through untouched.
//   - An invalid key is rejected with 400.
//   - Lookup or save failures never block the request; the request is simply
//     not deduplicated.
//
// Install it after Identity and before the rate limiter so replays do not
// consume tokens.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		uid := UserID(c)
		if c.Request.Method != http.MethodPost || key == "" || uid == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		ctx := c.Request.Context()
		route := c.Request.Method + " " + c.Request.URL.Path

		if prev, found, err := store.Lookup(ctx, uid, route, key, time.Now().UTC()); err == nil && found {
			c.Set(ctxKeyIdemReplay, true)
			idemReplays.Inc()
			c.Header(HeaderIdempotencyReplayed, "true")
			if len(prev.Body) == 0 {
				c.AbortWithStatus(prev.Status)
				return
			}
			c.Abort()
			c.Data(prev.Status, "application/json; charset=utf-8", prev.Body)
			return
		}

		rec := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status >= 200 && status < 300 {
			resp := StoredResponse{Status: status, Body: rec.body.Bytes()}
			if err := store.Save(ctx, uid, route, key, resp); err != nil {
				LoggerFrom(c).Debug().Err(err).Str("route", route).Msg("idempotency record not saved")
			}
		}
	}
}

// captureWriter tees the response body so it can be stored after the
// handler returns.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
