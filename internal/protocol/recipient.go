package protocol

// Recipient is a return address: anything the store can deliver a reply to.
// Tell must not block the store for long; ReplyChan never does when used for
// a single request.
type Recipient interface {
	Tell(Reply)
}

// RecipientFunc adapts a function to Recipient.
type RecipientFunc func(Reply)

// Tell calls f(r).
func (f RecipientFunc) Tell(r Reply) { f(r) }

// ReplyChan is a one-shot return address backed by a buffered channel.
type ReplyChan chan Reply

// NewReplyChan returns a ReplyChan with room for exactly one reply.
func NewReplyChan() ReplyChan { return make(ReplyChan, 1) }

// Tell enqueues r.
func (c ReplyChan) Tell(r Reply) { c <- r }
