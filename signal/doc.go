// Package signal receives the asynchronous signals status-backend pushes over
// its /signals websocket and lets test flows wait for them.
//
// A Client owns a single websocket connection. A background reader decodes
// every frame into Envelopes, appends them to a per-type buffer and wakes the
// Expectations registered for that type. Flows register an Expectation before
// triggering the RPC call that produces the signal, then block on it:
//
//	exp, err := signals.PrepareExpectation(signal.Wallet, isFilteringDone, 1)
//	...
//	_, err = rpcClient.CallValid(ctx, "wallet_startActivityFilterSessionV2", params, id)
//	...
//	envelopes, err := exp.Wait(ctx)
//
// Waits fail with ErrTimeoutExceeded when nothing arrives in time and with
// ErrStreamClosed when the connection dies while they are pending.
package signal
