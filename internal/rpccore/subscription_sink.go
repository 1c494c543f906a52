package rpccore

import "encoding/json"

// SubscriptionSink is handed to a subscription handler so it can push
// values toward its one subscriber, framed as JSON-RPC notifications
// carrying the assigned subscription id.
type SubscriptionSink struct {
	sink   *MethodSink
	method string
	subID  SubscriptionID
}

func newSubscriptionSink(sink *MethodSink, method string, subID SubscriptionID) *SubscriptionSink {
	return &SubscriptionSink{sink: sink, method: method, subID: subID}
}

// SubscriptionID returns the id this sink pushes under.
func (s *SubscriptionSink) SubscriptionID() SubscriptionID {
	return s.subID
}

// Send serializes value, frames it as a subscription notification and
// enqueues it on the underlying MethodSink. It never blocks on the
// consumer; buffering is the channel's responsibility. It returns
// ErrSinkClosed once the connection has gone away.
func (s *SubscriptionSink) Send(value any) error {
	notification := newNotification(s.method, s.subID, value)
	frame, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return s.sink.Send(string(frame))
}
