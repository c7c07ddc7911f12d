// Package services – MessageService
//
// MessageService posts, edits, deletes and lists board messages. Listing
// goes through the store's Retrieve and Search commands and is paginated
// here, after the store returns its snapshots in acceptance order.
//
// Observability: all public methods are OpenTelemetry-instrumented.

package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/protocol"
	"github.com/tbourn/go-message-board/internal/utils"
)

// MessageService owns the message lifecycle.
type MessageService struct {
	Board *Board
}

// Page is one page of a listing.
type Page struct {
	Items    []*domain.UserMessage
	Total    int
	Page     int
	PageSize int
}

// Submit posts text as author and returns the assigned message id.
func (s *MessageService) Submit(ctx context.Context, author, text string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(attribute.String("user.id", author)))
	defer span.End()

	if err := checkIdentity(author); err != nil {
		return domain.NewID, err
	}
	text, err := s.Board.checkText(text)
	if err != nil {
		return domain.NewID, err
	}

	reply, err := s.Board.ask(ctx, func(env protocol.Envelope) protocol.Command {
		return protocol.Submit{Envelope: env, Message: domain.NewUserMessage(author, text)}
	})
	if err != nil {
		return domain.NewID, err
	}
	ack, ok := reply.(protocol.OperationAck)
	if !ok {
		return domain.NewID, unexpected(reply)
	}
	span.SetAttributes(attribute.Int64("message.id", ack.MessageID))
	return ack.MessageID, nil
}

// Retrieve lists messages whose author is exactly author.
func (s *MessageService) Retrieve(ctx context.Context, author string, page, pageSize int) (*Page, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Retrieve",
		trace.WithAttributes(
			attribute.String("author", author),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if err := checkIdentity(author); err != nil {
		return nil, err
	}
	return s.list(ctx, page, pageSize, func(env protocol.Envelope) protocol.Command {
		return protocol.Retrieve{Envelope: env, Author: author}
	})
}

// Search lists messages whose author or text contains q, ignoring case.
// An empty q lists every message.
func (s *MessageService) Search(ctx context.Context, q string, page, pageSize int) (*Page, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", q),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	return s.list(ctx, page, pageSize, func(env protocol.Envelope) protocol.Command {
		return protocol.Search{Envelope: env, Text: q}
	})
}

// Edit replaces the text of message id. Only its author may edit it, and
// the new (author, text) must not match any stored message.
func (s *MessageService) Edit(ctx context.Context, actor string, id int64, text string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Edit",
		trace.WithAttributes(attribute.String("user.id", actor), attribute.Int64("message.id", id)),
	)
	defer span.End()

	if err := checkIdentity(actor); err != nil {
		return err
	}
	text, err := s.Board.checkText(text)
	if err != nil {
		return err
	}
	return s.ack(ctx, func(env protocol.Envelope) protocol.Command {
		return protocol.EditMessage{Envelope: env, Actor: actor, MessageID: id, Text: text}
	})
}

// Delete removes message id. Only its author may delete it.
func (s *MessageService) Delete(ctx context.Context, actor string, id int64) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", actor), attribute.Int64("message.id", id)),
	)
	defer span.End()

	if err := checkIdentity(actor); err != nil {
		return err
	}
	return s.ack(ctx, func(env protocol.Envelope) protocol.Command {
		return protocol.DeleteMessage{Envelope: env, Actor: actor, MessageID: id}
	})
}

func (s *MessageService) ack(ctx context.Context, build func(protocol.Envelope) protocol.Command) error {
	reply, err := s.Board.ask(ctx, build)
	if err != nil {
		return err
	}
	if _, ok := reply.(protocol.OperationAck); !ok {
		return unexpected(reply)
	}
	return nil
}

func (s *MessageService) list(ctx context.Context, page, pageSize int, build func(protocol.Envelope) protocol.Command) (*Page, error) {
	reply, err := s.Board.ask(ctx, build)
	if err != nil {
		return nil, err
	}
	found, ok := reply.(protocol.FoundMessages)
	if !ok {
		return nil, unexpected(reply)
	}
	return &Page{
		Items:    utils.Paginate(found.Messages, page, pageSize),
		Total:    len(found.Messages),
		Page:     page,
		PageSize: pageSize,
	}, nil
}
