// Package bus is an in-process publish/subscribe bus keyed by channel
// name. It carries drive commands out of the rover controller and status
// snapshots into it.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

var ErrClosed = errors.New("bus closed")

type Message struct {
	Channel string
	Payload interface{}
}

type subscriber struct {
	channel string
	ch      chan Message
}

type Bus struct {
	mu          sync.Mutex
	subscribers map[string]subscriber
	buffer      int
	closed      bool

	dropped atomic.Uint64
}

func New() *Bus {
	return NewWithBuffer(DefaultBuffer)
}

func NewWithBuffer(buffer int) *Bus {
	if buffer < 0 {
		buffer = 0
	}
	return &Bus{
		subscribers: make(map[string]subscriber),
		buffer:      buffer,
	}
}

// Subscribe registers for messages published on channel. The returned id
// is passed to Unsubscribe. The message channel is closed on Unsubscribe or
// Close.
func (b *Bus) Subscribe(channel string) (string, <-chan Message) {
	id := uuid.NewString()
	ch := make(chan Message, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = subscriber{channel: channel, ch: ch}
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.subscribers[id]; ok {
		close(s.ch)
		delete(b.subscribers, id)
	}
}

// Publish delivers payload to every subscriber of channel without blocking.
// A subscriber whose queue is full misses the message.
func (b *Bus) Publish(channel string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	msg := Message{Channel: channel, Payload: payload}
	for _, s := range b.subscribers {
		if s.channel != channel {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped counts messages discarded because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, s := range b.subscribers {
		close(s.ch)
		delete(b.subscribers, id)
	}
	return nil
}
