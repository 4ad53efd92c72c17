package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/t/backendtest"
)

func TestService(t *testing.T) {
	backend := backendtest.Start(t)
	backend.HandleRPC("settings_getSettings", func(req backendtest.Request) (interface{}, error) {
		return map[string]string{"display-name": "alice"}, nil
	})
	backend.HandleRPC("settings_saveSetting", func(req backendtest.Request) (interface{}, error) {
		return nil, &backendtest.Error{Code: -32000, Message: "unknown setting"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	service := New(rpc.NewClient(backend.URL()), "settings")
	require.Equal(t, "settings_getSettings", service.Method("getSettings"))

	var settings map[string]string
	require.NoError(t, service.CallResult(ctx, &settings, "getSettings"))
	require.Equal(t, "alice", settings["display-name"])
	require.JSONEq(t, "[]", string(backend.Calls("settings_getSettings")[0].Params))

	_, err := service.Call(ctx, "saveSetting", "foo", 1)
	require.ErrorIs(t, err, rpc.ErrProtocolViolation)
	require.JSONEq(t, `["foo",1]`, string(backend.Calls("settings_saveSetting")[0].Params))

	resp, err := service.CallUnchecked(ctx, "saveSetting", "foo", 1)
	require.NoError(t, err)
	require.Equal(t, -32000, resp.RPCError().Code)

	_, err = service.CallWithID(ctx, "req-7", "getSettings")
	require.NoError(t, err)
	require.JSONEq(t, `"req-7"`, string(backend.Calls("settings_getSettings")[1].ID))
}
