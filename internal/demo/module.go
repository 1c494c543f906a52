// Package demo registers a small RpcModule exercising every operation
// named by the core engine: a plain call and two independent
// subscription feeds, matching the module/subscription scenarios this
// server is built to demonstrate, with no live external dependency.
package demo

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

const (
	helloMessage     = "hello from subscription"
	fooValue         = 1337
	tickInterval     = 200 * time.Millisecond
	dedupTTL         = 150 * time.Millisecond
	dedupCleanupTick = time.Minute
)

// Register installs say_hello, subscribe_hello/unsubscribe_hello and
// subscribe_foo/unsubscribe_foo onto module.
func Register(module *rpccore.RpcModule, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := module.RegisterMethod("say_hello", sayHello); err != nil {
		return err
	}

	cache := newDedupCache(dedupTTL, dedupCleanupTick)
	p := &publisher{cache: cache, logger: logger}

	if err := module.RegisterSubscription("subscribe_hello", "unsubscribe_hello", p.publishHello); err != nil {
		return err
	}
	if err := module.RegisterSubscription("subscribe_foo", "unsubscribe_foo", p.publishFoo); err != nil {
		return err
	}
	return nil
}

func sayHello(json.RawMessage) (any, error) {
	return "hello", nil
}
