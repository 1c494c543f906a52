// cmd/client is a small runnable example exercising Call and
// Subscribe against a running server, in the same spirit as the
// connection/subscription examples shipped alongside client libraries
// like defiweb-go-eth: a main that dials, calls a method, subscribes
// to a feed, and prints what comes back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/LimeChain/rpcmux/internal/client"
)

func main() {
	wsURL := flag.String("ws", "ws://localhost:8546/", "WebSocket endpoint")
	httpURL := flag.String("http", "http://localhost:8545/", "HTTP endpoint")
	flag.Parse()

	if err := run(*httpURL, *wsURL); err != nil {
		log.Fatal(err)
	}
}

func run(httpURL, wsURL string) error {
	httpTransport, err := client.NewHTTPTransport(client.HTTPTransportOptions{URL: httpURL})
	if err != nil {
		return fmt.Errorf("failed to build http transport: %w", err)
	}
	httpClient := client.New(httpTransport)
	defer httpClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var hello string
	if err := httpClient.Call(ctx, &hello, "say_hello", nil); err != nil {
		return fmt.Errorf("say_hello call failed: %w", err)
	}
	fmt.Printf("say_hello -> %q\n", hello)

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	wsTransport, err := client.NewWSTransport(dialCtx, client.WSTransportOptions{URL: wsURL})
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}
	wsClient := client.New(wsTransport)
	defer wsClient.Close()

	sub, err := wsClient.Subscribe(context.Background(), "subscribe_hello", "unsubscribe_hello", nil)
	if err != nil {
		return fmt.Errorf("subscribe_hello failed: %w", err)
	}
	defer sub.Close()

	for i := 0; i < 3; i++ {
		nextCtx, nextCancel := context.WithTimeout(context.Background(), 5*time.Second)
		item, err := sub.Next(nextCtx)
		nextCancel()
		if err != nil {
			return fmt.Errorf("subscription ended early: %w", err)
		}
		fmt.Printf("subscribe_hello -> %s\n", string(item))
	}

	return nil
}
