// Package client implements the caller side of the protocol: request
// correlation over either transport, and subscription demultiplexing
// over the one transport that can keep a connection open long enough
// to receive pushes. It is grounded on defiweb-go-eth's rpc/transport
// package (HTTP and Websocket Transport implementations) with the
// wire envelope swapped for this repository's own rpccore types, and
// on the context-timeout-plus-status-check idiom an HTTP call should
// follow when calling out to an external service.
package client

import (
	"context"
	"encoding/json"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// Transport sends one JSON-RPC request envelope and returns the raw
// result or a decoded RPCError. Each Transport allocates its own
// request ids internally, from a counter owned by that one instance:
// request ids must never be shared across two transports writing onto
// the same connection, since a WebSocket transport also allocates ids
// internally for the Subscribe/unsubscribe calls it issues on its own.
type Transport interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Close() error
}

// Subscriber is implemented by transports that can keep a connection
// open to receive push notifications. Only WSTransport implements it;
// HTTPTransport is stateless and has nowhere to route a notification.
type Subscriber interface {
	Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params any) (*Subscription, error)
}

// rpcError adapts rpccore.RPCError into a Go error.
type rpcError rpccore.RPCError

func (e *rpcError) Error() string {
	return e.Message
}
