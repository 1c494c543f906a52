package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// ErrSubscriptionEnded is returned by Next once a subscription has
// reached end-of-stream, whether because the caller closed it, the
// connection dropped, or its queue overflowed. Overflow ends only this
// one subscription as explicit end-of-stream; the client and its other
// subscriptions remain usable.
var ErrSubscriptionEnded = errors.New("subscription ended")

// Subscription delivers the decoded result payload of each
// notification pushed under one subscription id. It is safe to call
// Next from a single goroutine; Close may be called concurrently with
// Next to unblock it.
type Subscription struct {
	id                rpccore.SubscriptionID
	unsubscribeMethod string
	transport         *WSTransport

	queue chan json.RawMessage
	done  chan struct{}

	mu         sync.Mutex
	terminated bool
}

func newSubscription(id rpccore.SubscriptionID, unsubscribeMethod string, transport *WSTransport, bufferSize int) *Subscription {
	return &Subscription{
		id:                id,
		unsubscribeMethod: unsubscribeMethod,
		transport:         transport,
		queue:             make(chan json.RawMessage, bufferSize),
		done:              make(chan struct{}),
	}
}

// ID returns the server-assigned subscription id.
func (s *Subscription) ID() rpccore.SubscriptionID {
	return s.id
}

// Next blocks until a notification arrives, ctx is done, or the
// subscription has ended. Once ended, queued-but-undelivered items are
// still drained before ErrSubscriptionEnded is returned.
func (s *Subscription) Next(ctx context.Context) (json.RawMessage, error) {
	select {
	case item := <-s.queue:
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		select {
		case item := <-s.queue:
			return item, nil
		default:
			return nil, ErrSubscriptionEnded
		}
	}
}

// isFull reports whether the next deliver would overflow the queue.
// Called by the transport's reader goroutine, under the transport's
// lock, before deciding whether to drop this subscription.
func (s *Subscription) isFull() bool {
	return len(s.queue) == cap(s.queue)
}

// deliver enqueues value, terminating the subscription on overflow
// instead of blocking the transport's single reader goroutine. The
// queue itself is never closed, so this never races a concurrent
// terminate: closing done (rather than queue) to signal end-of-stream
// means a send here can never land on a closed channel.
func (s *Subscription) deliver(value json.RawMessage) {
	select {
	case s.queue <- value:
	case <-s.done:
	default:
		s.terminate()
	}
}

// terminate closes done, making any further or pending Next call drain
// the queue and then return ErrSubscriptionEnded. Idempotent.
func (s *Subscription) terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	s.terminated = true
	close(s.done)
}

// Close terminates local delivery and sends the unsubscribe call in the
// background without waiting for its reply (best-effort: errors are not
// surfaced, since the subscription is ending either way). This is the
// client's explicit, idiomatic substitute for a destructor-triggered
// unsubscribe: Go has no Drop, so cleanup is a method call the caller
// is expected to make, typically via defer.
func (s *Subscription) Close() {
	s.terminate()
	go func() {
		_ = s.transport.unsubscribe(context.Background(), s.unsubscribeMethod, s.id)
	}()
}
