package rpccore

import (
	"encoding/json"
	"errors"
	"math/rand"
)

// subscriptionIDMask keeps generated ids within 53 bits so JSON-number
// consumers that treat ids as IEEE-754 doubles round-trip them exactly.
const subscriptionIDMask = (uint64(1) << 53) - 1

// Method is the erased handler form installed into the registry: it
// receives the request id, raw params, the sink for this connection
// and the connection id, and is responsible for writing a response (or
// nothing, for a notification) to the sink itself. It returns nothing:
// call-level failures are written to the sink as JSON-RPC error
// objects.
type Method func(id any, params json.RawMessage, sink *MethodSink, conn ConnectionID)

// Methods is a name -> Method table, the product of RpcModule.IntoMethods.
type Methods map[string]Method

// CallHandler implements a plain RPC method. Returning ErrInvalidParams
// (or any error satisfying errors.Is(err, ErrInvalidParams)) maps to
// CodeInvalidParams; wrap any other failure with Failed(err) to map it
// to CodeServerError with err's message; a nil error with result != nil
// writes a success response.
type CallHandler func(params json.RawMessage) (result any, err error)

// SubscribeHandler is invoked once per subscribe call. It may spawn
// background work that retains sink and keeps calling Send; any
// error it returns synchronously is surfaced as an internal error.
type SubscribeHandler func(params json.RawMessage, sink *SubscriptionSink) error

// RpcModule is the server-side method and subscription registry.
// Method names are unique within a module; a subscription's
// subscribe/unsubscribe pair must also be unique and distinct from
// each other.
type RpcModule struct {
	methods     Methods
	subscribers *subscribers
}

// NewRpcModule creates an empty module.
func NewRpcModule() *RpcModule {
	return &RpcModule{methods: make(Methods), subscribers: newSubscribers()}
}

func (m *RpcModule) verifyMethodName(name string) error {
	if _, exists := m.methods[name]; exists {
		return &MethodAlreadyRegisteredError{Name: name}
	}
	return nil
}

// RegisterMethod installs handler under name. It fails with
// MethodAlreadyRegisteredError if name is already registered; the
// registry is left unchanged on failure.
func (m *RpcModule) RegisterMethod(name string, handler CallHandler) error {
	if err := m.verifyMethodName(name); err != nil {
		return err
	}
	m.methods[name] = wrapCallHandler(handler)
	return nil
}

func wrapCallHandler(handler CallHandler) Method {
	return func(id any, params json.RawMessage, sink *MethodSink, _ ConnectionID) {
		result, err := handler(params)
		writeCallResult(id, sink, result, err)
	}
}

func writeCallResult(id any, sink *MethodSink, result any, err error) {
	if id == nil {
		return // notification: no reply expected
	}
	if err == nil {
		respondSuccess(id, sink, result)
		return
	}
	var failed *CallFailed
	switch {
	case errors.Is(err, ErrInvalidParams):
		respondError(id, sink, NewInvalidParams(ErrInvalidParams.Error()))
	case errors.As(err, &failed):
		respondError(id, sink, NewServerError(failed.Error()))
	default:
		respondError(id, sink, NewInternalError(err.Error()))
	}
}

func respondSuccess(id any, sink *MethodSink, result any) {
	frame, err := json.Marshal(NewSuccessResponse(id, result))
	if err != nil {
		respondError(id, sink, NewInternalError(err.Error()))
		return
	}
	_ = sink.Send(string(frame))
}

func respondError(id any, sink *MethodSink, rpcErr *RPCError) {
	frame, err := json.Marshal(NewErrorResponse(id, rpcErr))
	if err != nil {
		return
	}
	_ = sink.Send(string(frame))
}

// RegisterSubscription installs a subscribe/unsubscribe pair under
// subscribeName/unsubscribeName. The two names must differ and both
// must be unique; on any failure the registry is unchanged.
//
// The installed subscribe handler: allocates a subscription id from a
// uniform random 64-bit source masked to 53 bits (redrawing on the
// astronomically unlikely event of a collision within this
// connection), inserts (connectionID, subID) into the shared
// Subscribers table, writes a success response echoing subID, then
// invokes handler with a SubscriptionSink bound to subscribeName and
// subID. The unsubscribe handler removes the Subscribers entry
// (absence is not an error) and replies with the string "Unsubscribed".
func (m *RpcModule) RegisterSubscription(subscribeName, unsubscribeName string, handler SubscribeHandler) error {
	if subscribeName == unsubscribeName {
		return &SubscriptionNameConflictError{Name: subscribeName}
	}
	if err := m.verifyMethodName(subscribeName); err != nil {
		return err
	}
	if err := m.verifyMethodName(unsubscribeName); err != nil {
		return err
	}

	subs := m.subscribers
	m.methods[subscribeName] = func(id any, params json.RawMessage, sink *MethodSink, conn ConnectionID) {
		subID := nextSubscriptionID(subs, conn)
		subs.insert(conn, subID, sink)
		respondSuccess(id, sink, subID)

		subSink := newSubscriptionSink(sink, subscribeName, subID)
		if err := handler(params, subSink); err != nil {
			// The subscribe reply already went out under id; a
			// synchronous setup failure from the callback is still
			// surfaced to the same caller as an internal error.
			respondError(id, sink, NewInternalError(err.Error()))
		}
	}
	m.methods[unsubscribeName] = func(id any, params json.RawMessage, sink *MethodSink, conn ConnectionID) {
		subID, err := parseSubscriptionID(params)
		if err != nil {
			respondError(id, sink, NewInvalidParams(err.Error()))
			return
		}
		subs.remove(conn, subID)
		respondSuccess(id, sink, "Unsubscribed")
	}
	return nil
}

func nextSubscriptionID(subs *subscribers, conn ConnectionID) SubscriptionID {
	for {
		candidate := SubscriptionID(rand.Uint64() & subscriptionIDMask)
		if !subs.has(conn, candidate) {
			return candidate
		}
	}
}

// parseSubscriptionID decodes the single positional parameter expected
// by an unsubscribe call.
func parseSubscriptionID(params json.RawMessage) (SubscriptionID, error) {
	var positional [1]SubscriptionID
	if err := json.Unmarshal(params, &positional); err != nil {
		var single SubscriptionID
		if err2 := json.Unmarshal(params, &single); err2 == nil {
			return single, nil
		}
		return 0, errors.New("expected a single subscription id parameter")
	}
	return positional[0], nil
}

// Merge copies every method in other into m; other keeps its own
// entries. It fails, leaving both modules unchanged, if any name in
// other already exists in m.
func (m *RpcModule) Merge(other *RpcModule) error {
	for name := range other.methods {
		if err := m.verifyMethodName(name); err != nil {
			return err
		}
	}
	for name, method := range other.methods {
		m.methods[name] = method
	}
	return nil
}

// IntoMethods returns the module's handler table.
func (m *RpcModule) IntoMethods() Methods {
	return m.methods
}

// RemoveConnection drops every Subscribers entry for conn. Transports
// call this on teardown after closing the connection's MethodSink; it
// is the closed sink, not this removal, that makes a subscription
// handler's background Send fail so its work terminates.
func (m *RpcModule) RemoveConnection(conn ConnectionID) {
	m.subscribers.removeConnection(conn)
}

// subscriberCount reports live subscriptions across all connections,
// for tests.
func (m *RpcModule) subscriberCount() int {
	return m.subscribers.count()
}
