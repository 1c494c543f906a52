package rpccore

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Dispatcher resolves inbound frames against a Methods table and
// drives their handlers against a per-connection sink. It never
// panics on malformed client input and never blocks the caller beyond
// invoking one handler.
type Dispatcher struct {
	methods Methods
	logger  *zap.Logger
}

// NewDispatcher builds a Dispatcher over methods. logger may be nil,
// in which case a no-op logger is used.
func NewDispatcher(methods Methods, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{methods: methods, logger: logger}
}

// Dispatch parses one inbound frame and invokes the resolved handler,
// writing any reply to sink. It returns once the handler has been
// invoked; subscription handlers may still be pushing asynchronously
// through sink afterward.
func (d *Dispatcher) Dispatch(frame []byte, sink *MethodSink, conn ConnectionID) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		d.logger.Debug("failed to parse inbound frame", zap.Error(err))
		respondError(nil, sink, NewParseError("parse error"))
		return
	}
	if req.JSONRPC != Version || req.Method == "" {
		d.logger.Debug("malformed jsonrpc envelope", zap.String("method", req.Method))
		respondError(req.ID, sink, NewInvalidRequest("invalid request"))
		return
	}

	method, ok := d.methods[req.Method]
	if !ok {
		d.logger.Debug("unknown method", zap.String("method", req.Method))
		if req.ID != nil {
			respondError(req.ID, sink, NewMethodNotFound(req.Method))
		}
		return
	}

	d.logger.Debug("dispatching method", zap.String("method", req.Method), zap.Any("id", req.ID))
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("method handler panicked", zap.String("method", req.Method), zap.Any("panic", r))
			if req.ID != nil {
				respondError(req.ID, sink, NewInternalError("internal error"))
			}
		}
	}()
	method(req.ID, req.Params, sink, conn)
}
