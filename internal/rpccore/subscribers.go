package rpccore

import "sync"

type subscriberKey struct {
	conn ConnectionID
	sub  SubscriptionID
}

// subscribers is the shared (connectionID, subscriptionID) -> sink
// table. A single mutex guards O(1) map operations; critical sections
// never suspend.
type subscribers struct {
	mu    sync.Mutex
	sinks map[subscriberKey]*MethodSink
}

func newSubscribers() *subscribers {
	return &subscribers{sinks: make(map[subscriberKey]*MethodSink)}
}

func (s *subscribers) insert(conn ConnectionID, sub SubscriptionID, sink *MethodSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[subscriberKey{conn, sub}] = sink
}

// remove deletes the entry if present. Absence is not an error; the
// unsubscribe handler built on top of this is idempotent.
func (s *subscribers) remove(conn ConnectionID, sub SubscriptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sinks, subscriberKey{conn, sub})
}

func (s *subscribers) has(conn ConnectionID, sub SubscriptionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sinks[subscriberKey{conn, sub}]
	return ok
}

// removeConnection drops every entry for conn. It does not close the
// sinks; a background publisher stops once the transport closes them.
func (s *subscribers) removeConnection(conn ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sinks {
		if key.conn == conn {
			delete(s.sinks, key)
		}
	}
}

// count reports the number of live subscriptions, for tests.
func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}
