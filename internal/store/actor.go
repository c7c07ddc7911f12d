package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-message-board/internal/protocol"
)

// ErrStopped is returned by Tell once the actor no longer accepts commands.
var ErrStopped = errors.New("store actor stopped")

// Actor runs an Engine on a single goroutine fed by a bounded mailbox.
// Commands are applied strictly in mailbox order, one at a time, and each
// reply is delivered before the next command is taken.
//
// Tell is safe for concurrent use; Run must be called exactly once.
type Actor struct {
	engine  *Engine
	mailbox chan protocol.Command
	log     zerolog.Logger

	mu       sync.RWMutex
	stopped  bool
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// NewActor wraps engine with a mailbox holding up to size pending commands.
// Sizes below 1 are coerced to 1.
func NewActor(engine *Engine, size int, opts ...Option) *Actor {
	if size < 1 {
		size = 1
	}
	o := buildOptions(opts)
	return &Actor{
		engine:  engine,
		mailbox: make(chan protocol.Command, size),
		log:     o.log,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Tell enqueues cmd. It blocks while the mailbox is full and returns
// ctx.Err() if ctx ends first, or ErrStopped after Stop.
func (a *Actor) Tell(ctx context.Context, cmd protocol.Command) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.stopped {
		return ErrStopped
	}
	select {
	case a.mailbox <- cmd:
		mailboxDepth.Set(float64(len(a.mailbox)))
		return nil
	case <-a.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands until ctx is cancelled or Stop is called. Commands
// already accepted into the mailbox are still answered before Run returns.
func (a *Actor) Run(ctx context.Context) {
	defer close(a.done)
	a.log.Info().Int("mailbox", cap(a.mailbox)).Msg("store actor started")

loop:
	for {
		select {
		case cmd := <-a.mailbox:
			a.handle(cmd)
		case <-a.quit:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	a.Stop()
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()

	drained := 0
	for {
		select {
		case cmd := <-a.mailbox:
			a.handle(cmd)
			drained++
		default:
			a.log.Info().Int("drained", drained).Msg("store actor stopped")
			return
		}
	}
}

// Stop asks Run to return. It does not wait; use Done for that.
func (a *Actor) Stop() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Done is closed once Run has returned.
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) handle(cmd protocol.Command) {
	start := time.Now()
	reply := a.engine.Handle(cmd)

	kind := cmd.Kind()
	commandsTotal.WithLabelValues(kind, reply.Outcome()).Inc()
	commandDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	storedMessages.Set(float64(a.engine.Len()))
	bannedIdentities.Set(float64(a.engine.BannedCount()))
	mailboxDepth.Set(float64(len(a.mailbox)))

	a.log.Debug().
		Str("command", kind).
		Int64("correlation_id", cmd.CorrelationID()).
		Str("outcome", reply.Outcome()).
		Msg("command processed")
}
