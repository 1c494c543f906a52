package demo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

func TestSayHelloReturnsHello(t *testing.T) {
	result, err := sayHello(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestRegisterInstallsAllFiveMethods(t *testing.T) {
	module := rpccore.NewRpcModule()
	require.NoError(t, Register(module, nil))

	methods := module.IntoMethods()
	for _, name := range []string{
		"say_hello",
		"subscribe_hello", "unsubscribe_hello",
		"subscribe_foo", "unsubscribe_foo",
	} {
		assert.Contains(t, methods, name)
	}
}

func TestSubscribeHelloPushesExpectedValue(t *testing.T) {
	module := rpccore.NewRpcModule()
	require.NoError(t, Register(module, nil))

	dispatcher := rpccore.NewDispatcher(module.IntoMethods(), nil)
	sink := rpccore.NewMethodSink(16)

	dispatcher.Dispatch([]byte(`{"jsonrpc":"2.0","method":"subscribe_hello","id":1}`), sink, 1)

	// drain the subscribe ack
	<-sink.Out()

	select {
	case frame := <-sink.Out():
		var note struct {
			Params struct {
				Result string `json:"result"`
			} `json:"params"`
		}
		require.NoError(t, json.Unmarshal([]byte(frame), &note))
		assert.Equal(t, helloMessage, note.Params.Result)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a notification")
	}
}
