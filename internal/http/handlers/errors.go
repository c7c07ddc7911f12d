// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Board codes (banned, operation_failed, store_unavailable) mirror the
//     store's reply kinds so clients can tell a ban from an ordinary refusal.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "banned",
//	  "message": "user is banned"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-message-board/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Board-specific:
	ErrCodeBanned           = "banned"
	ErrCodeOperationFailed  = "operation_failed"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// failService translates a service error into the matching HTTP envelope.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBanned):
		fail(c, http.StatusForbidden, ErrCodeBanned, err.Error())
	case errors.Is(err, services.ErrOperationFailed):
		fail(c, http.StatusConflict, ErrCodeOperationFailed, err.Error())
	case errors.Is(err, services.ErrEmptyText),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrEmptyIdentity),
		errors.Is(err, services.ErrInvalidEmoji),
		errors.Is(err, services.ErrInvalidKind):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
