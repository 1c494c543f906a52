// Package rpccore implements the JSON-RPC 2.0 dispatch and subscription
// engine: the server-side method/subscription registry and the
// per-connection dispatcher that drives it.
package rpccore

import "encoding/json"

const Version = "2.0"

// Request is an inbound JSON-RPC 2.0 envelope. A nil ID marks a
// notification: the dispatcher still invokes the handler but never
// writes a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id and so
// expects no reply.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is an outbound JSON-RPC 2.0 envelope carrying either a
// result or an error, never both.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

// NewSuccessResponse builds a success Response echoing id.
func NewSuccessResponse(id any, result any) *Response {
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

// NewErrorResponse builds an error Response echoing id.
func NewErrorResponse(id any, err *RPCError) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}

// NotificationParams carries the subscription id and the pushed value
// inside a subscription notification's params object.
type NotificationParams struct {
	Subscription SubscriptionID `json:"subscription"`
	Result       any            `json:"result"`
}

// Notification is a server-to-client push for a live subscription. It
// has no id: the client correlates it by the subscription id inside
// Params, not by the envelope.
type Notification struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  NotificationParams `json:"params"`
}

func newNotification(method string, subID SubscriptionID, result any) *Notification {
	return &Notification{
		JSONRPC: Version,
		Method:  method,
		Params:  NotificationParams{Subscription: subID, Result: result},
	}
}

// SubscriptionID is a server-assigned subscription identifier. It is
// always masked to 53 bits so JSON-number consumers that only have
// IEEE-754 doubles round-trip it exactly.
type SubscriptionID uint64

// ConnectionID identifies one live server-side connection. It is
// meaningless for stateless transports such as HTTP, where every call
// may use the zero value.
type ConnectionID uint64
