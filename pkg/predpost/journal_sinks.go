package predpost

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("predpost: channel sink closed")

// AlertBatchFunc is invoked with each batch drained from the journal queue.
type AlertBatchFunc func([]Alert) error

// NewCallbackSink adapts a function into a JournalSink.
func NewCallbackSink(name string, fn AlertBatchFunc) JournalSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes alert batches via a channel; it returns the sink, the read-only
// channel, and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (JournalSink, <-chan []Alert, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []Alert, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   AlertBatchFunc
}

func (s *callbackSink) WriteBatch(alerts []Alert) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(alerts) == 0 {
		return nil
	}
	return s.fn(slices.Clone(alerts))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []Alert
	closed chan struct{}
	once   sync.Once

	// held for reading while sending so close never races a send
	mu sync.RWMutex
}

func (s *channelSink) WriteBatch(alerts []Alert) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(alerts) == 0 {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- slices.Clone(alerts):
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
