package rpccore

import "encoding/json"

// ContextCallHandler is a plain method handler threaded with a shared,
// immutable context value.
type ContextCallHandler[Context any] func(params json.RawMessage, ctx Context) (result any, err error)

// ContextSubscribeHandler is a subscription handler threaded with the
// same shared context.
type ContextSubscribeHandler[Context any] func(params json.RawMessage, sink *SubscriptionSink, ctx Context) error

// RpcContextModule wraps an RpcModule with a read-only context value
// shared across every invocation. It embeds *RpcModule so Merge and
// IntoMethods are inherited without re-implementation — the Go
// rendering of the Rust Deref/DerefMut sugar onto the plain module.
// A context-free RpcModule is conceptually this type with Context = struct{}.
type RpcContextModule[Context any] struct {
	*RpcModule
	ctx Context
}

// NewRpcContextModule creates a module sharing ctx across every
// handler it registers.
func NewRpcContextModule[Context any](ctx Context) *RpcContextModule[Context] {
	return &RpcContextModule[Context]{RpcModule: NewRpcModule(), ctx: ctx}
}

// RegisterMethodWithContext installs handler under name, passing the
// module's shared context on every call.
func (m *RpcContextModule[Context]) RegisterMethodWithContext(name string, handler ContextCallHandler[Context]) error {
	if err := m.verifyMethodName(name); err != nil {
		return err
	}
	ctx := m.ctx
	m.methods[name] = func(id any, params json.RawMessage, sink *MethodSink, _ ConnectionID) {
		result, err := handler(params, ctx)
		writeCallResult(id, sink, result, err)
	}
	return nil
}

// RegisterSubscriptionWithContext installs a subscribe/unsubscribe
// pair, passing the module's shared context to the subscribe callback.
func (m *RpcContextModule[Context]) RegisterSubscriptionWithContext(
	subscribeName, unsubscribeName string,
	handler ContextSubscribeHandler[Context],
) error {
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
	ctx := m.ctx
	m.methods[subscribeName] = func(id any, params json.RawMessage, sink *MethodSink, conn ConnectionID) {
		subID := nextSubscriptionID(subs, conn)
		subs.insert(conn, subID, sink)
		respondSuccess(id, sink, subID)

		subSink := newSubscriptionSink(sink, subscribeName, subID)
		if err := handler(params, subSink, ctx); err != nil {
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

// IntoModule returns the plain RpcModule view, for registering on a
// dispatcher that only knows about RpcModule.
func (m *RpcContextModule[Context]) IntoModule() *RpcModule {
	return m.RpcModule
}
