package rpccore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMethodRejectsDuplicateName(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterMethod("say_hello", func(json.RawMessage) (any, error) {
		return "hello", nil
	}))

	err := m.RegisterMethod("say_hello", func(json.RawMessage) (any, error) {
		return "hello again", nil
	})

	var dup *MethodAlreadyRegisteredError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "say_hello", dup.Name)
	assert.Len(t, m.IntoMethods(), 1)
}

func TestRegisterSubscriptionRejectsSameNames(t *testing.T) {
	m := NewRpcModule()
	err := m.RegisterSubscription("sub", "sub", func(json.RawMessage, *SubscriptionSink) error {
		return nil
	})

	var conflict *SubscriptionNameConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, m.IntoMethods(), 0)
}

func TestCallRoundTrip(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterMethod("say_hello", func(json.RawMessage) (any, error) {
		return "hello", nil
	}))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"say_hello","id":1}`), sink, 0)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	assert.Nil(t, resp.Error)
	assert.Equal(t, "hello", resp.Result)
	assert.Equal(t, float64(1), resp.ID)
}

func TestCallInvalidParamsMapsToDashThirtyTwoSixZeroTwo(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterMethod("need_params", func(json.RawMessage) (any, error) {
		return nil, ErrInvalidParams
	}))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"need_params","id":2}`), sink, 0)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestCallFailedMapsToServerError(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterMethod("boom", func(json.RawMessage) (any, error) {
		return nil, Failed(errors.New("disk on fire"))
	}))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"boom","id":3}`), sink, 0)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeServerError, resp.Error.Code)
	assert.Equal(t, "disk on fire", resp.Error.Message)
}

func TestUnknownMethodMapsToMethodNotFound(t *testing.T) {
	m := NewRpcModule()
	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"missing","id":4}`), sink, 0)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestMalformedJSONMapsToParseError(t *testing.T) {
	m := NewRpcModule()
	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{not json`), sink, 0)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)
}

func TestNotificationNeverReplies(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterMethod("say_hello", func(json.RawMessage) (any, error) {
		return "hello", nil
	}))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"say_hello"}`), sink, 0)

	select {
	case frame := <-sink.Out():
		t.Fatalf("expected no reply to a notification, got %q", frame)
	default:
	}
}

func TestSubscribeLifecycleInsertsAndRemovesSubscriber(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterSubscription("sub_hello", "unsub_hello",
		func(json.RawMessage, *SubscriptionSink) error { return nil }))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	const conn ConnectionID = 7

	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"sub_hello","id":1}`), sink, conn)
	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	require.NotNil(t, resp.Result)

	subID := uint64(resp.Result.(float64))
	assert.Less(t, subID, uint64(1)<<53)
	assert.Equal(t, 1, m.subscriberCount())

	unsubReq := []byte(`{"jsonrpc":"2.0","method":"unsub_hello","params":[` +
		jsonNumber(subID) + `],"id":2}`)
	d.Dispatch(unsubReq, sink, conn)

	unsubFrame := <-sink.Out()
	var unsubResp Response
	require.NoError(t, json.Unmarshal([]byte(unsubFrame), &unsubResp))
	assert.Equal(t, "Unsubscribed", unsubResp.Result)
	assert.Equal(t, 0, m.subscriberCount())
}

func TestUnsubscribeUnknownIDIsNoop(t *testing.T) {
	m := NewRpcModule()
	require.NoError(t, m.RegisterSubscription("sub_hello", "unsub_hello",
		func(json.RawMessage, *SubscriptionSink) error { return nil }))

	d := NewDispatcher(m.IntoMethods(), nil)
	sink := NewMethodSink(8)
	d.Dispatch([]byte(`{"jsonrpc":"2.0","method":"unsub_hello","params":[999],"id":1}`), sink, 1)

	frame := <-sink.Out()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(frame), &resp))
	assert.Equal(t, "Unsubscribed", resp.Result)
}

func TestMergeCollisionLeavesBothModulesUnchanged(t *testing.T) {
	a := NewRpcModule()
	require.NoError(t, a.RegisterMethod("m", func(json.RawMessage) (any, error) { return nil, nil }))
	b := NewRpcModule()
	require.NoError(t, b.RegisterMethod("m", func(json.RawMessage) (any, error) { return nil, nil }))
	require.NoError(t, b.RegisterMethod("n", func(json.RawMessage) (any, error) { return nil, nil }))

	err := a.Merge(b)

	var dup *MethodAlreadyRegisteredError
	require.ErrorAs(t, err, &dup)
	assert.Len(t, a.IntoMethods(), 1)
	assert.Len(t, b.IntoMethods(), 2)
}

func TestMergeSucceedsWithoutCollision(t *testing.T) {
	a := NewRpcModule()
	require.NoError(t, a.RegisterMethod("m", func(json.RawMessage) (any, error) { return nil, nil }))
	b := NewRpcModule()
	require.NoError(t, b.RegisterMethod("n", func(json.RawMessage) (any, error) { return nil, nil }))

	require.NoError(t, a.Merge(b))
	assert.Len(t, a.IntoMethods(), 2)
}

func TestContextModuleMergesWithPlainModule(t *testing.T) {
	cx := NewRpcContextModule[[]byte](nil)
	require.NoError(t, cx.RegisterMethodWithContext("bla with context",
		func(json.RawMessage, []byte) (any, error) { return nil, nil }))

	plain := NewRpcModule()
	require.NoError(t, plain.RegisterMethod("bla", func(json.RawMessage) (any, error) { return nil, nil }))

	require.NoError(t, cx.Merge(plain))

	names := make([]string, 0, 2)
	for name := range cx.IntoMethods() {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"bla", "bla with context"}, names)
}

func TestContextModuleCanRegisterSubscriptions(t *testing.T) {
	cx := NewRpcContextModule[struct{}](struct{}{})
	require.NoError(t, cx.RegisterSubscriptionWithContext("hi", "goodbye",
		func(json.RawMessage, *SubscriptionSink, struct{}) error { return nil }))

	methods := cx.IntoMethods()
	assert.Contains(t, methods, "hi")
	assert.Contains(t, methods, "goodbye")
}

func jsonNumber(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
