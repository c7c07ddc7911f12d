// Package protocol defines the closed set of commands a client can send to
// the message store and the replies the store sends back.
//
// Both sets are sealed: Command and Reply carry unexported marker methods, so
// only the types declared here satisfy them and the store can dispatch with an
// exhaustive type switch. Every command carries a caller-chosen correlation id
// and a return address; the store answers each command with exactly one reply
// bearing the same correlation id.
package protocol

import "github.com/tbourn/go-message-board/internal/domain"

// Command is a request addressed to the store.
type Command interface {
	// CorrelationID is the caller-chosen id echoed in the reply.
	CorrelationID() int64
	// ReturnAddress receives the reply.
	ReturnAddress() Recipient
	// Kind names the command for logs and metrics.
	Kind() string
	isCommand()
}

// Envelope carries the addressing shared by every command.
type Envelope struct {
	CommunicationID int64
	ReplyTo         Recipient
}

func (e Envelope) CorrelationID() int64     { return e.CommunicationID }
func (e Envelope) ReturnAddress() Recipient { return e.ReplyTo }
func (Envelope) isCommand()                 {}

// Retrieve asks for every message posted by Author.
type Retrieve struct {
	Envelope
	Author string
}

// Search asks for every message whose author or text contains Text,
// ignoring case.
type Search struct {
	Envelope
	Text string
}

// Submit posts a new message. Message.ID must be domain.NewID; the store
// assigns the real id on acceptance and keeps its own copy.
type Submit struct {
	Envelope
	Message *domain.UserMessage
}

// AddLike likes a message on behalf of Actor.
type AddLike struct {
	Envelope
	Actor     string
	MessageID int64
}

// AddDislike dislikes a message on behalf of Actor.
type AddDislike struct {
	Envelope
	Actor     string
	MessageID int64
}

// RemoveLikeOrDislike withdraws Actor's like or dislike, selected by Stance.
type RemoveLikeOrDislike struct {
	Envelope
	Actor     string
	MessageID int64
	Stance    domain.LikeKind
}

// AddReaction attaches Emoji to a message on behalf of Actor.
type AddReaction struct {
	Envelope
	Actor     string
	MessageID int64
	Emoji     domain.Emoji
}

// AddReport records that Reporter reported Target.
type AddReport struct {
	Envelope
	Reporter string
	Target   string
}

// EditMessage replaces the text of Actor's own message.
type EditMessage struct {
	Envelope
	Actor     string
	MessageID int64
	Text      string
}

// DeleteMessage removes Actor's own message permanently.
type DeleteMessage struct {
	Envelope
	Actor     string
	MessageID int64
}

func (Retrieve) Kind() string            { return "retrieve" }
func (Search) Kind() string              { return "search" }
func (Submit) Kind() string              { return "submit" }
func (AddLike) Kind() string             { return "add_like" }
func (AddDislike) Kind() string          { return "add_dislike" }
func (RemoveLikeOrDislike) Kind() string { return "remove_like_or_dislike" }
func (AddReaction) Kind() string         { return "add_reaction" }
func (AddReport) Kind() string           { return "add_report" }
func (EditMessage) Kind() string         { return "edit_message" }
func (DeleteMessage) Kind() string       { return "delete_message" }
