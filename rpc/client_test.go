package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/status-im/status-backend-tests/t/backendtest"
)

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

type ClientSuite struct {
	suite.Suite

	backend *backendtest.Server
	client  *Client
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *ClientSuite) SetupTest() {
	s.backend = backendtest.Start(s.T())
	s.client = NewClient(s.backend.URL(), WithTimeout(5*time.Second))
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
}

func (s *ClientSuite) TearDownTest() {
	s.cancel()
}

func (s *ClientSuite) TestCall() {
	s.backend.HandleRPC("wakuext_peers", func(req backendtest.Request) (interface{}, error) {
		return map[string]interface{}{"peer": []string{"/ip4/1.2.3.4"}}, nil
	})

	resp, err := s.client.Call(s.ctx, "wakuext_peers", nil, 42)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal("2.0", resp.JSONRPC)
	s.Require().JSONEq("42", string(resp.ID))
	s.Require().False(resp.HasError())

	var peers map[string][]string
	s.Require().NoError(resp.UnmarshalResult(&peers))
	s.Require().Len(peers["peer"], 1)

	calls := s.backend.Calls("wakuext_peers")
	s.Require().Len(calls, 1)
	s.Require().Equal("2.0", calls[0].JSONRPC)
	s.Require().JSONEq("[]", string(calls[0].Params))
	s.Require().JSONEq("42", string(calls[0].ID))
}

func (s *ClientSuite) TestCallDefaultID() {
	s.backend.HandleRPC("settings_getSettings", func(req backendtest.Request) (interface{}, error) {
		return map[string]string{}, nil
	})

	_, err := s.client.CallValid(s.ctx, "settings_getSettings", []interface{}{}, nil)
	s.Require().NoError(err)
	s.Require().JSONEq("1", string(s.backend.Calls("settings_getSettings")[0].ID))
}

func (s *ClientSuite) TestCallReturnsErrorResponses() {
	resp, err := s.client.Call(s.ctx, "wakuext_unknown", []interface{}{}, 1)
	s.Require().NoError(err)
	s.Require().True(resp.HasError())
	rpcErr := resp.RPCError()
	s.Require().NotNil(rpcErr)
	s.Require().Equal(-32601, rpcErr.Code)

	_, err = s.client.CallValid(s.ctx, "wakuext_unknown", []interface{}{}, 1)
	s.Require().ErrorIs(err, ErrProtocolViolation)
}

func (s *ClientSuite) TestCallValidStringError() {
	s.backend.HandleRPCRaw("wallet_boom", func(body []byte) (int, []byte) {
		return http.StatusOK, []byte(`{"error":"boom"}`)
	})

	_, err := s.client.CallValid(s.ctx, "wallet_boom", nil, 1)
	s.Require().ErrorIs(err, ErrProtocolViolation)

	var violation *ProtocolViolation
	s.Require().True(errors.As(err, &violation))
	s.Require().Equal(`{"error":"boom"}`, string(violation.Body))
	s.Require().Equal(http.StatusOK, violation.StatusCode)
}

func (s *ClientSuite) TestCallValidRejects() {
	cases := map[string]struct {
		status int
		body   string
	}{
		"status":       {http.StatusInternalServerError, `{"result":{}}`},
		"empty body":   {http.StatusOK, ``},
		"invalid json": {http.StatusOK, `{"result":`},
		"error object": {http.StatusOK, `{"error":{"code":-32000,"message":"messenger already started"}}`},
		"error list":   {http.StatusOK, `{"error":["x"]}`},
	}
	for name, tc := range cases {
		tc := tc
		s.Run(name, func() {
			s.backend.HandleRPCRaw("test_reject", func([]byte) (int, []byte) {
				return tc.status, []byte(tc.body)
			})
			_, err := s.client.CallValid(s.ctx, "test_reject", nil, 1)
			s.Require().ErrorIs(err, ErrProtocolViolation)
		})
	}
}

func (s *ClientSuite) TestCallValidAcceptsEmptyErrors() {
	for _, body := range []string{`{"result":1,"error":null}`, `{"error":""}`, `{"error":{}}`, `{"result":true}`, `"ok"`} {
		body := body
		s.backend.HandleRPCRaw("test_accept", func([]byte) (int, []byte) {
			return http.StatusOK, []byte(body)
		})
		_, err := s.client.CallValid(s.ctx, "test_accept", nil, 1)
		s.Require().NoError(err, body)
	}
}

func (s *ClientSuite) TestAPIRequest() {
	requests := make(chan []byte, 1)
	s.backend.HandleAPI("InitializeApplication", func(body []byte) (int, []byte) {
		requests <- body
		return http.StatusOK, []byte(`{"accounts":[]}`)
	})
	s.backend.HandleAPI("Logout", func(body []byte) (int, []byte) {
		return http.StatusOK, []byte(`{"error":"boom"}`)
	})

	resp, err := s.client.APIValidRequest(s.ctx, "InitializeApplication", map[string]interface{}{"dataDir": "/tmp/x"})
	s.Require().NoError(err)
	s.Require().JSONEq(`{"dataDir":"/tmp/x"}`, string(<-requests))
	s.Require().JSONEq(`{"accounts":[]}`, string(resp.Body))

	_, err = s.client.APIValidRequest(s.ctx, "Logout", nil)
	s.Require().ErrorIs(err, ErrProtocolViolation)

	resp, err = s.client.APIRequest(s.ctx, "NotThere", nil)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusNotImplemented, resp.StatusCode)
}

func (s *ClientSuite) TestHealth() {
	_, err := s.client.Health(s.ctx)
	s.Require().NoError(err)

	s.backend.SetHealthy(false)
	_, err = s.client.Health(s.ctx)
	s.Require().ErrorIs(err, ErrProtocolViolation)
}

func (s *ClientSuite) TestConcurrentCalls() {
	s.backend.HandleRPC("wallet_echo", func(req backendtest.Request) (interface{}, error) {
		var id int
		if err := json.Unmarshal(req.ID, &id); err != nil {
			return nil, err
		}
		return id, nil
	})

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			resp, err := s.client.CallValid(s.ctx, "wallet_echo", nil, id)
			if !s.NoError(err) {
				return
			}
			var result int
			s.NoError(resp.UnmarshalResult(&result))
			s.Equal(id, result)
		}(i)
	}
	wg.Wait()
}

func (s *ClientSuite) TestRetries() {
	var attempts int32
	s.backend.HandleRPCRaw("wakuext_peers", func(body []byte) (int, []byte) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return http.StatusServiceUnavailable, []byte(`starting`)
		}
		return http.StatusOK, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)
	})

	resp, err := s.client.CallValid(s.ctx, "wakuext_peers", nil, nil)
	s.Require().ErrorIs(err, ErrProtocolViolation)
	s.Require().Equal(http.StatusServiceUnavailable, resp.StatusCode)

	atomic.StoreInt32(&attempts, 0)
	client := NewClient(s.backend.URL(), WithRetries(3, 10*time.Millisecond))
	resp, err = client.CallValid(s.ctx, "wakuext_peers", nil, nil)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().EqualValues(3, atomic.LoadInt32(&attempts))
}

func (s *ClientSuite) TestRetriesKeepErrorResponses() {
	client := NewClient(s.backend.URL(), WithRetries(3, 10*time.Millisecond))

	_, err := client.CallValid(s.ctx, "wakuext_unknown", nil, nil)
	s.Require().ErrorIs(err, ErrProtocolViolation)
	s.Require().Len(s.backend.Calls("wakuext_unknown"), 1)
}

func TestRetriesTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithTimeout(time.Second), WithRetries(2, 10*time.Millisecond))

	_, err := client.Call(context.Background(), "wakuext_peers", nil, 1)
	require.ErrorIs(t, err, ErrTransport)
}

func (s *ClientSuite) TestRateLimit() {
	s.backend.HandleRPC("wakuext_peers", func(req backendtest.Request) (interface{}, error) {
		return map[string]interface{}{}, nil
	})
	client := NewClient(s.backend.URL(), WithRateLimit(100*time.Millisecond, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.CallValid(s.ctx, "wakuext_peers", nil, i)
		s.Require().NoError(err)
	}
	s.Require().GreaterOrEqual(time.Since(start), 150*time.Millisecond)
	s.Require().Len(s.backend.Calls("wakuext_peers"), 3)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := client.Call(ctx, "wakuext_peers", nil, 4)
	s.Require().ErrorIs(err, ErrTransport)
	s.Require().ErrorIs(err, context.Canceled)
	s.Require().Len(s.backend.Calls("wakuext_peers"), 3)
}

func TestTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithTimeout(time.Second))

	_, err := client.Call(context.Background(), "wakuext_peers", nil, 1)
	require.ErrorIs(t, err, ErrTransport)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, "http://127.0.0.1:1/statusgo/CallRPC", transportErr.URL)

	_, err = client.Health(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}

func TestPopulated(t *testing.T) {
	for raw, want := range map[string]bool{
		``:                false,
		`null`:            false,
		`""`:              false,
		`{}`:              false,
		`[]`:              false,
		`false`:           false,
		`0`:               false,
		`"boom"`:          true,
		`{"code":1}`:      true,
		`[1]`:             true,
		`true`:            true,
		`-1`:              true,
		`{"message":"x"}`: true,
	} {
		require.Equal(t, want, populated(json.RawMessage(raw)), raw)
	}
}
