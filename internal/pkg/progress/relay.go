// Package progress carries execution progress from a background task to the
// event loop that renders it.
package progress

import (
	"sync"

	"github.com/doeshing/dexter/internal/domain"
)

// Relay is a many-producer, single-consumer progress channel. Senders block
// while the buffer is full and give up once the relay is abandoned, so a
// sender can never panic on a closed channel.
type Relay struct {
	ch   chan domain.Progress
	done chan struct{}
	once sync.Once
}

// New returns a relay with the given buffer size.
func New(buffer int) *Relay {
	if buffer <= 0 {
		buffer = domain.ProgressBuffer
	}
	return &Relay{
		ch:   make(chan domain.Progress, buffer),
		done: make(chan struct{}),
	}
}

// Send delivers p. It reports false when the consumer has gone away.
func (r *Relay) Send(p domain.Progress) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.ch <- p:
		return true
	case <-r.done:
		return false
	}
}

// Drain returns every value buffered right now without waiting for more.
func (r *Relay) Drain() []domain.Progress {
	var out []domain.Progress
	for {
		select {
		case p := <-r.ch:
			out = append(out, p)
		default:
			return out
		}
	}
}

// Abandon detaches the consumer. Later sends are discarded.
func (r *Relay) Abandon() {
	r.once.Do(func() { close(r.done) })
}

// Abandoned reports whether Abandon has been called.
func (r *Relay) Abandoned() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
