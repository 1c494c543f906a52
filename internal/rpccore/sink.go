package rpccore

import "sync"

// MethodSink is the outbound channel toward one connection: multiple
// handlers may hold a clone (multi-producer), a single transport loop
// drains it (single-consumer). Send never blocks: a full buffer drops
// the frame rather than stalling the handler goroutine that called it.
type MethodSink struct {
	ch     chan string
	mu     sync.Mutex
	closed bool
}

// NewMethodSink creates a sink with the given outbound buffer depth.
func NewMethodSink(bufferSize int) *MethodSink {
	return &MethodSink{ch: make(chan string, bufferSize)}
}

// Send enqueues a serialized JSON frame. It returns ErrSinkClosed once
// Close has been called, matching the Rust `unbounded_send` on a
// dropped receiver.
func (s *MethodSink) Send(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- frame:
		return nil
	default:
		// Outbound buffer full: the connection's writer is behind.
		// Drop rather than block the handler goroutine holding this
		// sink; the transport loop below observes gaps only if it
		// inspects sequence numbers, which this core does not assign.
		return nil
	}
}

// Out returns the channel the connection's writer loop drains.
func (s *MethodSink) Out() <-chan string {
	return s.ch
}

// Close marks the sink closed and stops further sends from succeeding.
// It does not close the channel itself so a writer loop draining Out
// via range can finish flushing what's already buffered; callers that
// own the channel should stop reading once they observe Closed().
func (s *MethodSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *MethodSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
