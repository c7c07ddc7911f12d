package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-message-board/internal/protocol"
)

// Mailbox accepts commands for the store. *store.Actor satisfies it.
type Mailbox interface {
	Tell(ctx context.Context, cmd protocol.Command) error
}

// Board is the client side of the store protocol: it stamps each command
// with a fresh correlation id and a one-shot return address, then waits for
// the matching reply.
//
// A Board is safe for concurrent use and is shared by the services.
type Board struct {
	Mailbox Mailbox

	// Timeout bounds the wait for a reply when the caller's context has no
	// earlier deadline. Zero means wait for the context only.
	Timeout time.Duration

	// MaxTextRunes caps message text. Zero disables the check.
	MaxTextRunes int

	seq atomic.Int64
}

// NewBoard returns a Board delivering to mb.
func NewBoard(mb Mailbox, timeout time.Duration, maxTextRunes int) *Board {
	return &Board{Mailbox: mb, Timeout: timeout, MaxTextRunes: maxTextRunes}
}

// nextID returns a correlation id unique for this Board.
func (b *Board) nextID() int64 { return b.seq.Add(1) }

// ask sends the command produced by build and waits for its reply.
// UserBanned and OperationFailed come back as ErrBanned and
// ErrOperationFailed; every other reply is returned as is.
func (b *Board) ask(ctx context.Context, build func(protocol.Envelope) protocol.Command) (protocol.Reply, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	id := b.nextID()
	replyTo := protocol.NewReplyChan()
	cmd := build(protocol.Envelope{CommunicationID: id, ReplyTo: replyTo})

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int64("board.correlation_id", id),
		attribute.String("board.command", cmd.Kind()),
	)

	if err := b.Mailbox.Tell(ctx, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var reply protocol.Reply
	select {
	case reply = <-replyTo:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
	}
	span.SetAttributes(attribute.String("board.outcome", reply.Outcome()))

	if reply.CorrelationID() != id {
		return nil, fmt.Errorf("%w: correlation id %d, want %d", ErrUnexpectedReply, reply.CorrelationID(), id)
	}
	switch reply.(type) {
	case protocol.UserBanned:
		return nil, ErrBanned
	case protocol.OperationFailed:
		return nil, ErrOperationFailed
	}
	return reply, nil
}

// checkText trims s and validates it against the rune limit.
func (b *Board) checkText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	if b.MaxTextRunes > 0 && utf8.RuneCountInString(s) > b.MaxTextRunes {
		return "", ErrTooLong
	}
	return s, nil
}

func checkIdentity(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrEmptyIdentity
		}
	}
	return nil
}

func unexpected(r protocol.Reply) error {
	return fmt.Errorf("%w: %T", ErrUnexpectedReply, r)
}
