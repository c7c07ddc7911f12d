// Package services – ReactionService
//
// ReactionService applies likes, dislikes and emoji reactions. A like and a
// dislike by the same identity are mutually exclusive; adding one replaces
// the other.

package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/protocol"
)

// ReactionService handles stances and reactions on messages.
type ReactionService struct {
	Board *Board
}

// Like records actor's like on message id and returns its new points.
func (s *ReactionService) Like(ctx context.Context, actor string, id int64) (int, error) {
	return s.stance(ctx, "Like", actor, id, func(env protocol.Envelope) protocol.Command {
		return protocol.AddLike{Envelope: env, Actor: actor, MessageID: id}
	})
}

// Dislike records actor's dislike on message id and returns its new points.
func (s *ReactionService) Dislike(ctx context.Context, actor string, id int64) (int, error) {
	return s.stance(ctx, "Dislike", actor, id, func(env protocol.Envelope) protocol.Command {
		return protocol.AddDislike{Envelope: env, Actor: actor, MessageID: id}
	})
}

// Unset withdraws actor's like or dislike, named by kind, from message id.
func (s *ReactionService) Unset(ctx context.Context, actor string, id int64, kind string) (int, error) {
	k, ok := domain.ParseLikeKind(kind)
	if !ok {
		return 0, ErrInvalidKind
	}
	return s.stance(ctx, "Unset", actor, id, func(env protocol.Envelope) protocol.Command {
		return protocol.RemoveLikeOrDislike{Envelope: env, Actor: actor, MessageID: id, Stance: k}
	})
}

// React adds emoji from actor to message id. The same emoji twice fails.
func (s *ReactionService) React(ctx context.Context, actor string, id int64, emoji string) (domain.Emoji, error) {
	tr := otel.Tracer("services/ReactionService")
	ctx, span := tr.Start(ctx, "React",
		trace.WithAttributes(
			attribute.String("user.id", actor),
			attribute.Int64("message.id", id),
			attribute.String("emoji", emoji),
		),
	)
	defer span.End()

	if err := checkIdentity(actor); err != nil {
		return "", err
	}
	e, ok := domain.ParseEmoji(emoji)
	if !ok {
		return "", ErrInvalidEmoji
	}
	reply, err := s.Board.ask(ctx, func(env protocol.Envelope) protocol.Command {
		return protocol.AddReaction{Envelope: env, Actor: actor, MessageID: id, Emoji: e}
	})
	if err != nil {
		return "", err
	}
	rr, ok := reply.(protocol.ReactionResponse)
	if !ok {
		return "", unexpected(reply)
	}
	return rr.Emoji, nil
}

func (s *ReactionService) stance(ctx context.Context, op, actor string, id int64, build func(protocol.Envelope) protocol.Command) (int, error) {
	tr := otel.Tracer("services/ReactionService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(attribute.String("user.id", actor), attribute.Int64("message.id", id)),
	)
	defer span.End()

	if err := checkIdentity(actor); err != nil {
		return 0, err
	}
	reply, err := s.Board.ask(ctx, build)
	if err != nil {
		return 0, err
	}
	rr, ok := reply.(protocol.ReactionResponse)
	if !ok {
		return 0, unexpected(reply)
	}
	span.SetAttributes(attribute.Int("message.points", rr.Points))
	return rr.Points, nil
}
