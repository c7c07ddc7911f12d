// Package store is the authoritative in-memory message store.
//
// Engine holds every accepted message and the moderation ledger, and applies
// commands from package protocol to them. It has no locks: exactly one
// goroutine may own an Engine, which is what Actor provides. Each command is
// processed to completion and produces exactly one reply.
//
// Mutating commands are guarded by a single ban check on the acting identity
// before any command-specific precondition is looked at, so a banned identity
// always receives protocol.UserBanned.
package store

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/protocol"
	"github.com/tbourn/go-message-board/internal/search"
)

// Failure reasons. They surface to clients as protocol.OperationFailed and
// are only kept apart for logs.
var (
	errNotFound     = errors.New("message not found")
	errDuplicate    = errors.New("duplicate")
	errUnauthorized = errors.New("not the author")
	errAssigned     = errors.New("message already has an id")
)

// Option configures an Engine or an Actor.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sets the logger used for command outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: log.Logger.With().Str("component", "store").Logger()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Engine owns the messages and the moderation ledger.
type Engine struct {
	messages map[int64]*domain.UserMessage
	order    []int64 // ids in acceptance order
	ledger   *domain.Ledger
	nextID   int64
	matcher  *search.Matcher
	log      zerolog.Logger
}

// NewEngine returns an empty store.
func NewEngine(opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		messages: map[int64]*domain.UserMessage{},
		ledger:   domain.NewLedger(),
		matcher:  search.NewMatcher(),
		log:      o.log,
	}
}

// Len returns the number of stored messages.
func (e *Engine) Len() int { return len(e.messages) }

// BannedCount returns the number of identities currently over the threshold.
func (e *Engine) BannedCount() int { return e.ledger.Banned() }

// Handle processes cmd and delivers the reply to its return address.
func (e *Engine) Handle(cmd protocol.Command) protocol.Reply {
	reply := e.Process(cmd)
	if to := cmd.ReturnAddress(); to != nil {
		to.Tell(reply)
	}
	return reply
}

// Process applies cmd and returns its reply without delivering it.
func (e *Engine) Process(cmd protocol.Command) protocol.Reply {
	id := cmd.CorrelationID()
	if actor, mutating := actingIdentity(cmd); mutating && e.ledger.IsBanned(actor) {
		e.log.Debug().Str("command", cmd.Kind()).Str("actor", actor).Msg("banned")
		return protocol.UserBanned{CommunicationID: id}
	}

	var err error
	switch c := cmd.(type) {
	case protocol.Retrieve:
		return protocol.FoundMessages{CommunicationID: id, Messages: e.findByAuthor(c.Author)}

	case protocol.Search:
		return protocol.FoundMessages{CommunicationID: id, Messages: e.findByAuthorOrText(c.Text)}

	case protocol.Submit:
		var msgID int64
		if msgID, err = e.insert(c.Message); err == nil {
			return protocol.OperationAck{CommunicationID: id, MessageID: msgID}
		}

	case protocol.AddLike:
		var m *domain.UserMessage
		if m, err = e.lookup(c.MessageID); err == nil {
			if m.AddLike(c.Actor) {
				return protocol.ReactionResponse{CommunicationID: id, Points: m.Points}
			}
			err = errDuplicate
		}

	case protocol.AddDislike:
		var m *domain.UserMessage
		if m, err = e.lookup(c.MessageID); err == nil {
			if m.AddDislike(c.Actor) {
				return protocol.ReactionResponse{CommunicationID: id, Points: m.Points}
			}
			err = errDuplicate
		}

	case protocol.RemoveLikeOrDislike:
		var m *domain.UserMessage
		if m, err = e.lookup(c.MessageID); err == nil {
			if m.RemoveStance(c.Stance, c.Actor) {
				return protocol.ReactionResponse{CommunicationID: id, Points: m.Points}
			}
			err = errNotFound
		}

	case protocol.AddReaction:
		var m *domain.UserMessage
		if m, err = e.lookup(c.MessageID); err == nil {
			if m.AddReaction(c.Actor, c.Emoji) {
				return protocol.ReactionResponse{CommunicationID: id, Emoji: c.Emoji}
			}
			err = errDuplicate
		}

	case protocol.AddReport:
		if e.ledger.Report(c.Reporter, c.Target) {
			if e.ledger.Reporters(c.Target) == domain.BanThreshold+1 {
				e.log.Info().
					Str("target", c.Target).
					Strs("reporters", e.ledger.ReportedBy(c.Target)).
					Msg("identity banned")
			}
			return protocol.OperationAck{CommunicationID: id, MessageID: domain.NewID}
		}
		err = errDuplicate

	case protocol.EditMessage:
		if err = e.edit(c.Actor, c.MessageID, c.Text); err == nil {
			return protocol.OperationAck{CommunicationID: id, MessageID: c.MessageID}
		}

	case protocol.DeleteMessage:
		if err = e.remove(c.Actor, c.MessageID); err == nil {
			return protocol.OperationAck{CommunicationID: id, MessageID: c.MessageID}
		}

	default:
		panic(fmt.Sprintf("store: unhandled command %T", cmd))
	}

	e.log.Debug().Str("command", cmd.Kind()).Int64("correlation_id", id).Err(err).Msg("operation failed")
	return protocol.OperationFailed{CommunicationID: id}
}

// actingIdentity returns the identity whose ban status gates cmd, and false
// for read-only commands.
func actingIdentity(cmd protocol.Command) (string, bool) {
	switch c := cmd.(type) {
	case protocol.Submit:
		if c.Message == nil {
			return "", false
		}
		return c.Message.Author, true
	case protocol.AddLike:
		return c.Actor, true
	case protocol.AddDislike:
		return c.Actor, true
	case protocol.RemoveLikeOrDislike:
		return c.Actor, true
	case protocol.AddReaction:
		return c.Actor, true
	case protocol.AddReport:
		return c.Reporter, true
	case protocol.EditMessage:
		return c.Actor, true
	case protocol.DeleteMessage:
		return c.Actor, true
	}
	return "", false
}

func (e *Engine) lookup(id int64) (*domain.UserMessage, error) {
	m, ok := e.messages[id]
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}

// hasContent reports whether any stored message has exactly (author, text).
func (e *Engine) hasContent(author, text string) bool {
	for _, m := range e.messages {
		if m.Author == author && m.Text == text {
			return true
		}
	}
	return false
}

func (e *Engine) insert(msg *domain.UserMessage) (int64, error) {
	if msg == nil {
		return domain.NewID, errNotFound
	}
	if msg.ID != domain.NewID {
		return domain.NewID, errAssigned
	}
	if e.hasContent(msg.Author, msg.Text) {
		return domain.NewID, errDuplicate
	}
	stored := msg.Clone()
	stored.ID = e.nextID
	e.nextID++
	e.messages[stored.ID] = stored
	e.order = append(e.order, stored.ID)
	return stored.ID, nil
}

// edit checks for a content collision across every message, the edited one
// included, so re-saving identical text fails.
func (e *Engine) edit(actor string, id int64, text string) error {
	m, err := e.lookup(id)
	if err != nil {
		return err
	}
	if e.hasContent(actor, text) {
		return errDuplicate
	}
	if m.Author != actor {
		return errUnauthorized
	}
	m.Text = text
	return nil
}

func (e *Engine) remove(actor string, id int64) error {
	m, err := e.lookup(id)
	if err != nil {
		return err
	}
	if m.Author != actor {
		return errUnauthorized
	}
	delete(e.messages, id)
	e.order = lo.Without(e.order, id)
	return nil
}

func (e *Engine) findByAuthor(author string) []*domain.UserMessage {
	return e.collect(func(m *domain.UserMessage) bool { return m.Author == author })
}

func (e *Engine) findByAuthorOrText(text string) []*domain.UserMessage {
	q := e.matcher.Compile(text)
	return e.collect(func(m *domain.UserMessage) bool { return q.Match(m.Author, m.Text) })
}

// collect returns snapshots of the matching messages in acceptance order.
func (e *Engine) collect(keep func(*domain.UserMessage) bool) []*domain.UserMessage {
	return lo.FilterMap(e.order, func(id int64, _ int) (*domain.UserMessage, bool) {
		m := e.messages[id]
		if !keep(m) {
			return nil, false
		}
		return m.Clone(), true
	})
}
