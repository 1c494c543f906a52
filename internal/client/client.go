package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client drives one Transport instance. Request-id allocation is
// entirely the Transport's own responsibility, since a WSTransport
// must also allocate ids for the Subscribe/unsubscribe calls it issues
// outside of Client.Call, and a second counter here would risk
// colliding with those.
type Client struct {
	transport Transport
}

// New wraps transport in a Client. transport is owned by the Client:
// Close on the Client closes the transport too.
func New(transport Transport) *Client {
	return &Client{transport: transport}
}

// Call invokes method with params and decodes the result into out,
// which may be nil to discard the result.
func (c *Client) Call(ctx context.Context, out any, method string, params any) error {
	raw, err := c.transport.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// Subscribe opens a subscription through subscribeMethod/unsubscribeMethod.
// It returns an error if the underlying Transport does not implement
// Subscriber (HTTPTransport never does).
func (c *Client) Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params any) (*Subscription, error) {
	subscriber, ok := c.transport.(Subscriber)
	if !ok {
		return nil, fmt.Errorf("transport does not support subscriptions")
	}
	return subscriber.Subscribe(ctx, subscribeMethod, unsubscribeMethod, params)
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
