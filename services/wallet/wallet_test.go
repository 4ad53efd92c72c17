package wallet

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/t/backendtest"
)

func TestSplitSignature(t *testing.T) {
	r := strings.Repeat("11", 32)
	s := strings.Repeat("22", 32)

	signature, err := SplitSignature("0x" + r + s + "1b")
	require.NoError(t, err)
	require.Equal(t, Signature{R: r, S: s, V: "1b"}, signature)

	_, err = SplitSignature("0x1234")
	require.Error(t, err)
	_, err = SplitSignature("zz")
	require.Error(t, err)
}

func TestRouteParamsEncoding(t *testing.T) {
	data, err := json.Marshal(RouteParams{
		UUID:                 "u",
		AddrFrom:             params.User1.Address,
		AddrTo:               params.User2.Address,
		AmountIn:             (*hexutil.Big)(big.NewInt(1000000000000000000)),
		AmountOut:            (*hexutil.Big)(big.NewInt(0)),
		TokenID:              "ETH",
		DisabledFromChainIDs: []uint64{10},
		DisabledToChainIDs:   []uint64{},
		GasFeeMode:           params.GasFeeModeMedium,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "0xde0b6b3a7640000", decoded["amountIn"])
	require.Equal(t, "0x0", decoded["amountOut"])
	require.Equal(t, strings.ToLower(params.User1.Address.Hex()), strings.ToLower(decoded["addrFrom"].(string)))
	require.Equal(t, float64(1), decoded["gasFeeMode"])
}

func TestStartActivityFilterSession(t *testing.T) {
	backend := backendtest.Start(t)
	service := New(rpc.NewClient(backend.URL()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend.HandleRPC("wallet_startActivityFilterSessionV2", func(backendtest.Request) (interface{}, error) {
		return 3, nil
	})

	sessionID, err := service.StartActivityFilterSessionV2(ctx, "42", []common.Address{params.User1.Address}, []uint64{params.AnvilNetworkID}, NewActivityFilter(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(3), sessionID)

	call := backend.Calls("wallet_startActivityFilterSessionV2")[0]
	require.JSONEq(t, `"42"`, string(call.ID))

	var callParams []json.RawMessage
	require.NoError(t, json.Unmarshal(call.Params, &callParams))
	require.Len(t, callParams, 4)
	require.JSONEq(t, `{"period":{"startTimestamp":0,"endTimestamp":0},"types":[],"statuses":[],"counterpartyAddresses":[],"assets":[],"collectibles":[],"filterOutAssets":false,"filterOutCollectibles":false}`, string(callParams[2]))
}
