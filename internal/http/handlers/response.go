// Package handlers provides HTTP handler implementations for the public API.
//
// This file turns store outcomes into HTTP responses. Every refusal leaves
// as an ErrorResponse; every success leaves through one of the helpers below,
// one per reply shape the board produces:
//
//	created  201 {"id": 7}                     new message
//	listed   200 {"messages": [...], ...}      list and search pages
//	scored   200 {"points": 1}                 like-family operations
//	reacted  200 {"emoji": "SMILEY"}           emoji reactions
//	acked    204                               edit, delete, report
//
// Example refusal:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "user_id": "mallory",
//	  "code": "banned",
//	  "message": "user is banned"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/http/middleware"
	"github.com/tbourn/go-message-board/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Identity the request acted as, when it sent one
	UserID string `json:"user_id,omitempty" example:"mallory"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"banned"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"user is banned"`
}

// fail aborts the request with an ErrorResponse.
//
// Server errors are logged at error level. Refusals caused by a ban are
// logged at info level with the identity, so a ban can be traced back from
// the access log without reading the report ledger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		UserID:    middleware.UserID(c),
		Code:      code,
		Message:   msg,
	}

	lg := middleware.LoggerFrom(c)
	switch {
	case status >= http.StatusInternalServerError:
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	case code == ErrCodeBanned:
		lg.Info().
			Str("user", resp.UserID).
			Str("path", c.FullPath()).
			Msg("banned identity refused")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallback routes.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// created answers a successful post with the new message id.
func created(c *gin.Context, id int64) {
	c.JSON(http.StatusCreated, PostMessageResponse{ID: id})
}

// listed answers with one page of messages. A nil page body is sent as [].
func listed(c *gin.Context, p *services.Page) {
	items := p.Items
	if items == nil {
		items = []*domain.UserMessage{}
	}
	c.JSON(http.StatusOK, ListMessagesResponse{Messages: items, Pagination: newPagination(p)})
}

// scored answers a like-family operation with the message's new score.
func scored(c *gin.Context, points int) {
	c.JSON(http.StatusOK, PointsResponse{Points: points})
}

// reacted echoes the emoji that was attached.
func reacted(c *gin.Context, e domain.Emoji) {
	c.JSON(http.StatusOK, ReactionResponse{Emoji: e})
}

// acked answers an operation whose only result is the store's acknowledgement.
func acked(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
