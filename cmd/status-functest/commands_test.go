package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/status-im/status-backend-tests/metrics"
	"github.com/status-im/status-backend-tests/signal"
	"github.com/status-im/status-backend-tests/t/backendtest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	app.ExitErrHandler = func(*cli.Context, error) {}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := app.RunContext(ctx, append([]string{"status-functest", "--env-file", "testdata/missing.env"}, args...))
	return out.String(), err
}

func TestHealth(t *testing.T) {
	fake := backendtest.Start(t)

	out, err := run(t, "--url", fake.URL(), "health")
	require.NoError(t, err)
	require.Contains(t, out, `"version":"fake"`)
}

func TestCall(t *testing.T) {
	fake := backendtest.Start(t)
	fake.HandleRPC("wakuext_peers", func(backendtest.Request) (interface{}, error) {
		return map[string]interface{}{"peer": []string{"/waku/2"}}, nil
	})

	out, err := run(t, "--url", fake.URL(), "call", "--id", "7", "wakuext_peers", "[]")
	require.NoError(t, err)
	require.Contains(t, out, `"peer"`)
	require.JSONEq(t, `7`, string(fake.Calls("wakuext_peers")[0].ID))
}

func TestCallError(t *testing.T) {
	fake := backendtest.Start(t)

	out, err := run(t, "--url", fake.URL(), "call", "wakuext_unknown")
	require.Error(t, err)
	require.Contains(t, out, "does not exist")
}

func TestCallRetries(t *testing.T) {
	fake := backendtest.Start(t)
	var attempts int32
	fake.HandleRPCRaw("wakuext_peers", func([]byte) (int, []byte) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return http.StatusServiceUnavailable, []byte(`starting`)
		}
		return http.StatusOK, []byte(`{"jsonrpc":"2.0","id":1,"result":{"peer":[]}}`)
	})

	out, err := run(t, "--url", fake.URL(), "--retries", "2", "call", "wakuext_peers")
	require.NoError(t, err)
	require.Contains(t, out, `"peer"`)
	require.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestWait(t *testing.T) {
	fake := backendtest.Start(t)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if fake.WaitForConnections(ctx, 1) != nil {
			return
		}
		_ = fake.Send(string(signal.MessagesNew), map[string]interface{}{"messages": []interface{}{}, "chats": []string{"skip"}})
		_ = fake.Send(string(signal.MessagesNew), map[string]interface{}{"messages": []interface{}{}, "chats": []string{"wanted"}})
	}()

	out, err := run(t, "--url", fake.URL(), "wait", "--timeout", "3s", "--match", "wanted", string(signal.MessagesNew))
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out, "\n"))
	require.Contains(t, out, "wanted")
	require.NotContains(t, out, "skip")
}

func TestWaitIsCounted(t *testing.T) {
	exposition := httptest.NewServer(metrics.Handler(nil))
	t.Cleanup(exposition.Close)
	counted := func() float64 {
		out, err := run(t, "metrics", "--family", "functest_signal_waits_total",
			"--label", "type="+string(signal.MessageDelivered), "--label", "outcome=satisfied",
			exposition.URL)
		require.NoError(t, err)
		value, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
		require.NoError(t, err)
		return value
	}
	before := counted()

	fake := backendtest.Start(t)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if fake.WaitForConnections(ctx, 1) != nil {
			return
		}
		_ = fake.Send(string(signal.MessageDelivered), map[string]string{"chatID": "chat", "messageID": "0x01"})
	}()
	_, err := run(t, "--url", fake.URL(), "wait", "--timeout", "3s", string(signal.MessageDelivered))
	require.NoError(t, err)

	require.Equal(t, before+1, counted())
}

func TestMetricsArguments(t *testing.T) {
	_, err := run(t, "metrics", "--family", "functest_signal_waits_total")
	require.Error(t, err)

	_, err = run(t, "metrics", "--family", "functest_signal_waits_total", "--label", "outcome", "http://127.0.0.1:1/metrics")
	require.Error(t, err)

	labels, err := parseLabels([]string{"type=wallet", "outcome="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"type": "wallet", "outcome": ""}, labels)
}

func TestWaitTimeout(t *testing.T) {
	fake := backendtest.Start(t)

	_, err := run(t, "--url", fake.URL(), "wait", "--timeout", "200ms", string(signal.NodeLogin))
	require.ErrorIs(t, err, signal.ErrTimeoutExceeded)
}

func TestNoURL(t *testing.T) {
	t.Setenv("STATUS_BACKEND_URLS", "")

	_, err := run(t, "health")
	require.ErrorIs(t, err, errNoURL)
}

func TestEventMatcher(t *testing.T) {
	_, err := eventMatcher("a", "b")
	require.Error(t, err)
	_, err = eventMatcher("", "(")
	require.Error(t, err)

	match, err := eventMatcher("", "")
	require.NoError(t, err)
	require.Nil(t, match)

	match, err = eventMatcher("", `"requestId":\d+`)
	require.NoError(t, err)
	require.True(t, match(&signal.Envelope{Raw: []byte(`{"requestId":3}`)}))
	require.False(t, match(&signal.Envelope{Raw: []byte(`{"requestId":"x"}`)}))
}
