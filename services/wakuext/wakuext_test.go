package wakuext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/t/backendtest"
)

func TestStartMessengerAlreadyStarted(t *testing.T) {
	backend := backendtest.Start(t)
	service := New(rpc.NewClient(backend.URL()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend.HandleRPC("wakuext_startMessenger", func(backendtest.Request) (interface{}, error) {
		return nil, &backendtest.Error{Code: codeMessengerStarted, Message: messageMessengerStarted}
	})
	_, err := service.StartMessenger(ctx)
	require.NoError(t, err)

	backend.HandleRPC("wakuext_startMessenger", func(backendtest.Request) (interface{}, error) {
		return nil, &backendtest.Error{Code: -32000, Message: "no messenger"}
	})
	_, err = service.StartMessenger(ctx)
	require.ErrorIs(t, err, rpc.ErrProtocolViolation)
}

func TestMessengerCalls(t *testing.T) {
	backend := backendtest.Start(t)
	service := New(rpc.NewClient(backend.URL()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend.HandleRPC("wakuext_peers", func(backendtest.Request) (interface{}, error) {
		return map[string]interface{}{"16Uiu2": []string{"/waku/2"}}, nil
	})
	backend.HandleRPC("wakuext_sendContactRequest", func(backendtest.Request) (interface{}, error) {
		return map[string]interface{}{"messages": []interface{}{}}, nil
	})
	backend.HandleRPC("wakuext_createGroupChatWithMembers", func(backendtest.Request) (interface{}, error) {
		return map[string]interface{}{"chats": []interface{}{}}, nil
	})

	peers, err := service.Peers(ctx)
	require.NoError(t, err)
	require.Len(t, peers, 1)

	_, err = service.SendContactRequest(ctx, "0x04aa", "hi")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"0x04aa","message":"hi"}]`, string(backend.Calls("wakuext_sendContactRequest")[0].Params))

	_, err = service.CreateGroupChatWithMembers(ctx, "group", []string{"0x04aa"})
	require.NoError(t, err)
	require.JSONEq(t, `[null,"group",["0x04aa"]]`, string(backend.Calls("wakuext_createGroupChatWithMembers")[0].Params))
}
