package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// publisher drives the two background ticks subscribe_hello and
// subscribe_foo hand out: each subscribe call spawns one goroutine
// that pushes a fixed value on a fixed interval until the sink closes.
// A dedup cache guards each push against re-sending a value still
// within its dedup window; the window is kept shorter than the tick
// interval here, so every tick is past its window and sends, but the
// same check is what a real event feed would use to collapse repeated
// ticks of the same underlying event into a single notification.
type publisher struct {
	cache  *dedupCache
	logger *zap.Logger
}

func (p *publisher) publishHello(_ json.RawMessage, sink *rpccore.SubscriptionSink) error {
	go p.run(sink, "hello", helloMessage)
	return nil
}

func (p *publisher) publishFoo(_ json.RawMessage, sink *rpccore.SubscriptionSink) error {
	go p.run(sink, "foo", fooValue)
	return nil
}

func (p *publisher) run(sink *rpccore.SubscriptionSink, tag string, value any) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	ctx := context.Background()
	key := fmt.Sprintf("%s:%d", tag, sink.SubscriptionID())

	for range ticker.C {
		if p.cache.seen(ctx, key, dedupTTL) {
			continue
		}
		if err := sink.Send(value); err != nil {
			p.logger.Debug("subscriber gone, stopping publisher", zap.String("tag", tag), zap.Error(err))
			return
		}
	}
}
