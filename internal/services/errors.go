// Package services is the application layer between the HTTP handlers and
// the message store. It validates input, turns calls into store commands,
// waits for the correlated reply and maps it to results or errors.
//
// This file centralizes the service-level error values. Translation into
// HTTP status codes happens in the handler layer.
package services

import "errors"

// Store outcomes.
var (
	// ErrBanned is returned when the acting identity has been reported by
	// more than domain.BanThreshold distinct users.
	ErrBanned = errors.New("user is banned")

	// ErrOperationFailed is returned when the store rejected a command:
	// missing message, duplicate, wrong author and similar.
	ErrOperationFailed = errors.New("operation failed")

	// ErrStoreUnavailable is returned when the command could not be
	// delivered or no reply arrived in time.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnexpectedReply indicates a reply of the wrong kind or with a
	// foreign correlation id.
	ErrUnexpectedReply = errors.New("unexpected reply from store")
)

// Input validation.
var (
	// ErrEmptyText is returned for blank message text or search queries
	// where one is required.
	ErrEmptyText = errors.New("text is empty")

	// ErrTooLong is returned when text exceeds the configured rune limit.
	ErrTooLong = errors.New("text too long")

	// ErrEmptyIdentity is returned when an author, actor, reporter or
	// target is blank.
	ErrEmptyIdentity = errors.New("identity is empty")

	// ErrInvalidEmoji is returned for emoji names outside the fixed set.
	ErrInvalidEmoji = errors.New("unknown emoji")

	// ErrInvalidKind is returned for a stance kind other than LIKE or DISLIKE.
	ErrInvalidKind = errors.New("kind must be LIKE or DISLIKE")
)
