package protocol

import "github.com/tbourn/go-message-board/internal/domain"

// Reply is the store's single answer to a command.
type Reply interface {
	// CorrelationID echoes the id of the command being answered.
	CorrelationID() int64
	// Outcome names the reply for logs and metrics.
	Outcome() string
	isReply()
}

// FoundMessages answers Retrieve and Search. Messages are snapshots; mutating
// them does not affect the store.
type FoundMessages struct {
	CommunicationID int64
	Messages        []*domain.UserMessage
}

// ReactionResponse answers like, dislike and removal commands with the
// message's current Points, and AddReaction with the recorded Emoji.
type ReactionResponse struct {
	CommunicationID int64
	Points          int
	Emoji           domain.Emoji
}

// OperationAck acknowledges Submit, AddReport, EditMessage and DeleteMessage.
// MessageID is the id assigned by Submit or targeted by Edit/Delete, and
// domain.NewID for reports.
type OperationAck struct {
	CommunicationID int64
	MessageID       int64
}

// OperationFailed reports that a command's preconditions did not hold.
type OperationFailed struct {
	CommunicationID int64
}

// UserBanned reports that the acting identity is banned; nothing changed.
type UserBanned struct {
	CommunicationID int64
}

func (r FoundMessages) CorrelationID() int64    { return r.CommunicationID }
func (r ReactionResponse) CorrelationID() int64 { return r.CommunicationID }
func (r OperationAck) CorrelationID() int64     { return r.CommunicationID }
func (r OperationFailed) CorrelationID() int64  { return r.CommunicationID }
func (r UserBanned) CorrelationID() int64       { return r.CommunicationID }

func (FoundMessages) Outcome() string    { return "found" }
func (ReactionResponse) Outcome() string { return "reaction" }
func (OperationAck) Outcome() string     { return "ack" }
func (OperationFailed) Outcome() string  { return "failed" }
func (UserBanned) Outcome() string       { return "banned" }

func (FoundMessages) isReply()    {}
func (ReactionResponse) isReply() {}
func (OperationAck) isReply()     {}
func (OperationFailed) isReply()  {}
func (UserBanned) isReply()       {}
