package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// envelope decodes any inbound frame loosely enough to tell a reply
// from a push notification before committing to either shape: a
// notification always carries a non-empty Method and never an ID, a
// reply always carries an ID (requests are never notifications on the
// client's own side, since the client always wants a reply).
type envelope struct {
	Method string            `json:"method,omitempty"`
	Params json.RawMessage   `json:"params,omitempty"`
	Result json.RawMessage   `json:"result,omitempty"`
	Error  *rpccore.RPCError `json:"error,omitempty"`
	ID     *json.Number      `json:"id,omitempty"`
}

type pendingCall struct {
	resultCh chan json.RawMessage
	errCh    chan error
}

// WSTransport keeps one persistent WebSocket connection open and
// demultiplexes inbound frames between pending calls and live
// subscriptions, grounded on defiweb-go-eth's Websocket transport
// (calls/subs maps, single reader goroutine) with gorilla/websocket in
// place of nhooyr.io/websocket to match the rest of this server's
// WebSocket stack.
type WSTransport struct {
	conn *websocket.Conn

	mu      sync.Mutex
	calls   map[uint64]*pendingCall
	subs    map[rpccore.SubscriptionID]*Subscription
	closed  bool
	closeCh chan struct{}

	subscriptionBufferSize int

	idCounter uint64
}

// WSTransportOptions configures a WSTransport.
type WSTransportOptions struct {
	URL string

	// SubscriptionBufferSize bounds each Subscription's queue depth. A
	// push that arrives when the queue is already full terminates that
	// one subscription (end-of-stream) without affecting the transport
	// or any other subscription.
	SubscriptionBufferSize int
}

// NewWSTransport dials opts.URL and starts the demultiplexing reader.
func NewWSTransport(ctx context.Context, opts WSTransportOptions) (*WSTransport, error) {
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported scheme %q: only ws and wss are accepted", parsed.Scheme)
	}

	bufSize := opts.SubscriptionBufferSize
	if bufSize <= 0 {
		bufSize = 64
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}

	t := &WSTransport{
		conn:                   conn,
		calls:                  make(map[uint64]*pendingCall),
		subs:                   make(map[rpccore.SubscriptionID]*Subscription),
		closeCh:                make(chan struct{}),
		subscriptionBufferSize: bufSize,
	}
	go t.readLoop()
	return t, nil
}

// Call implements Transport. It allocates the request id itself: this
// is the single id allocator for the connection, shared by Call,
// Subscribe and unsubscribe, so none of them can collide with another.
func (t *WSTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := t.nextID()
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	req := rpccore.Request{JSONRPC: rpccore.Version, Method: method, Params: rawParams, ID: id}

	pending := &pendingCall{resultCh: make(chan json.RawMessage, 1), errCh: make(chan error, 1)}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errors.New("transport closed")
	}
	t.calls[id] = pending
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.calls, id)
		t.mu.Unlock()
	}()

	t.mu.Lock()
	writeErr := t.conn.WriteJSON(req)
	t.mu.Unlock()
	if writeErr != nil {
		return nil, fmt.Errorf("failed to write request: %w", writeErr)
	}

	select {
	case result := <-pending.resultCh:
		return result, nil
	case err := <-pending.errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closeCh:
		return nil, errors.New("transport closed")
	}
}

// Subscribe implements Subscriber: it calls subscribeMethod, parses
// the returned subscription id, registers a Subscription keyed on that
// id, and returns it ready for Next.
func (t *WSTransport) Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params any) (*Subscription, error) {
	raw, err := t.Call(ctx, subscribeMethod, params)
	if err != nil {
		return nil, err
	}

	var subID rpccore.SubscriptionID
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, fmt.Errorf("failed to parse subscription id: %w", err)
	}

	sub := newSubscription(subID, unsubscribeMethod, t, t.subscriptionBufferSize)

	t.mu.Lock()
	t.subs[subID] = sub
	t.mu.Unlock()

	return sub, nil
}

// unsubscribe is called by Subscription.Close.
func (t *WSTransport) unsubscribe(ctx context.Context, unsubscribeMethod string, subID rpccore.SubscriptionID) error {
	t.mu.Lock()
	delete(t.subs, subID)
	t.mu.Unlock()

	_, err := t.Call(ctx, unsubscribeMethod, []rpccore.SubscriptionID{subID})
	return err
}

func (t *WSTransport) nextID() uint64 {
	return atomic.AddUint64(&t.idCounter, 1)
}

func (t *WSTransport) readLoop() {
	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			t.shutdown(err)
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}

		if env.Method != "" {
			t.routeNotification(env)
			continue
		}
		t.routeReply(env)
	}
}

func (t *WSTransport) routeNotification(env envelope) {
	var note struct {
		Subscription rpccore.SubscriptionID `json:"subscription"`
		Result       json.RawMessage        `json:"result"`
	}
	if err := json.Unmarshal(env.Params, &note); err != nil {
		return
	}

	t.mu.Lock()
	sub, ok := t.subs[note.Subscription]
	if ok && sub.isFull() {
		delete(t.subs, note.Subscription)
	}
	t.mu.Unlock()

	if ok {
		sub.deliver(note.Result)
	}
}

func (t *WSTransport) routeReply(env envelope) {
	if env.ID == nil {
		return
	}
	id, err := env.ID.Int64()
	if err != nil {
		return
	}

	t.mu.Lock()
	pending, ok := t.calls[uint64(id)]
	t.mu.Unlock()
	if !ok {
		return
	}

	if env.Error != nil {
		rerr := rpcError(*env.Error)
		pending.errCh <- &rerr
		return
	}
	pending.resultCh <- env.Result
}

func (t *WSTransport) shutdown(cause error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for _, pending := range t.calls {
		pending.errCh <- fmt.Errorf("connection closed: %w", cause)
	}
	for _, sub := range t.subs {
		sub.terminate()
	}
	t.subs = make(map[rpccore.SubscriptionID]*Subscription)
	t.mu.Unlock()
	close(t.closeCh)
}

// Close implements Transport.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	already := t.closed
	t.closed = true
	if !already {
		for _, sub := range t.subs {
			sub.terminate()
		}
		t.subs = make(map[rpccore.SubscriptionID]*Subscription)
	}
	t.mu.Unlock()
	if already {
		return nil
	}
	close(t.closeCh)
	return t.conn.Close()
}
