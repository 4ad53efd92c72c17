// Package backendtest provides an in-process stand-in for status-backend: the
// /statusgo HTTP API, the /health probe and the /signals websocket.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/logutils"
)

const (
	apiPrefix   = "/statusgo/"
	callRPCName = "CallRPC"

	codeMethodNotFound = -32601
	codeInternal       = -32000
)

// Request is a JSON-RPC request received on CallRPC.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// Error is returned by RPC handlers to control the error object sent back.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// RPCHandler answers a JSON-RPC method with a result or an error.
type RPCHandler func(req Request) (interface{}, error)

// RawHandler answers with an arbitrary status code and body.
type RawHandler func(body []byte) (int, []byte)

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Server struct {
	server   *http.Server
	listener net.Listener
	mux      *http.ServeMux
	address  string
	logger   *zap.Logger

	lock        sync.Mutex
	connections map[*websocket.Conn]struct{}
	// changed is closed and replaced whenever connections changes.
	changed     chan struct{}
	rpc         map[string]RPCHandler
	rawRPC      map[string]RawHandler
	api         map[string]RawHandler
	calls       []Request
	unhealthy   bool
}

func NewServer() *Server {
	return &Server{
		connections: make(map[*websocket.Conn]struct{}, 1),
		changed:     make(chan struct{}),
		rpc:         make(map[string]RPCHandler),
		rawRPC:      make(map[string]RawHandler),
		api:         make(map[string]RawHandler),
		logger:      logutils.ZapLogger().Named("FakeBackend"),
	}
}

// Start listens on a random local port and stops the server when the test
// finishes.
func Start(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	if err := s.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("failed to start fake backend: %v", err)
	}
	go s.Serve()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func (s *Server) Address() string {
	return s.address
}

// URL returns the base URL of the server, as passed to status-backend clients.
func (s *Server) URL() string {
	return "http://" + s.address
}

func (s *Server) Listen(address string) error {
	if s.server != nil {
		return errors.New("server already started")
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/signals", s.signals)
	s.mux.HandleFunc("/health", s.health)
	s.mux.HandleFunc(apiPrefix, s.endpoint)

	s.server = &http.Server{
		Addr:              address,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var err error
	s.listener, err = net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.address = s.listener.Addr().String()

	return nil
}

func (s *Server) Serve() {
	err := s.server.Serve(s.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("fake backend closed with error", zap.Error(err))
	}
}

func (s *Server) Stop(ctx context.Context) {
	s.DropConnections()

	err := s.server.Shutdown(ctx)
	if err != nil {
		s.logger.Error("failed to shutdown fake backend", zap.Error(err))
	}
}

// HandleRPC registers the handler of a JSON-RPC method.
func (s *Server) HandleRPC(method string, handler RPCHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rpc[method] = handler
}

// HandleRPCRaw registers a handler that writes the CallRPC response itself.
func (s *Server) HandleRPCRaw(method string, handler RawHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rawRPC[method] = handler
}

// HandleAPI registers the handler of /statusgo/<name>.
func (s *Server) HandleAPI(name string, handler RawHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.api[name] = handler
}

// SetHealthy switches /health between 200 and 503.
func (s *Server) SetHealthy(healthy bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unhealthy = !healthy
}

// Calls returns the JSON-RPC requests received for method.
func (s *Server) Calls(method string) []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	var out []Request
	for _, call := range s.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// Send pushes a signal envelope to every connected client.
func (s *Server) Send(typ string, event interface{}) error {
	data, err := json.Marshal(struct {
		Type  string      `json:"type"`
		Event interface{} `json:"event"`
	}{typ, event})
	if err != nil {
		return err
	}
	return s.SendRaw(data)
}

// SendRaw writes data as a single text frame to every connected client.
func (s *Server) SendRaw(data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var lastErr error
	for connection := range s.connections {
		err := connection.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			s.logger.Error("failed to write message", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// DropConnections closes every signal connection without a close handshake.
func (s *Server) DropConnections() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for connection := range s.connections {
		err := connection.Close()
		if err != nil {
			s.logger.Error("failed to close connection", zap.Error(err))
		}
		delete(s.connections, connection)
	}
	s.notifyLocked()
}

// Connections returns the number of open signal connections.
func (s *Server) Connections() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.connections)
}

// WaitForConnections blocks until exactly n signal connections are open.
func (s *Server) WaitForConnections(ctx context.Context, n int) error {
	for {
		s.lock.Lock()
		count := len(s.connections)
		changed := s.changed
		s.lock.Unlock()

		if count == n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("%d signal connections, want %d: %w", count, n, ctx.Err())
		}
	}
}

func (s *Server) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	s.lock.Lock()
	s.connections[connection] = struct{}{}
	s.notifyLocked()
	s.lock.Unlock()

	go s.discard(connection)
}

// discard reads until the client goes away so close frames are answered.
func (s *Server) discard(connection *websocket.Conn) {
	defer logutils.LogOnPanic()
	for {
		if _, _, err := connection.NextReader(); err != nil {
			break
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.connections[connection]; ok {
		_ = connection.Close()
		delete(s.connections, connection)
		s.notifyLocked()
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	unhealthy := s.unhealthy
	s.lock.Unlock()

	if unhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	s.write(w, http.StatusOK, []byte(`{"version":"fake"}`))
}

func (s *Server) endpoint(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, apiPrefix)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("failed to read request", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if name == callRPCName {
		s.callRPC(w, body)
		return
	}

	s.lock.Lock()
	handler, ok := s.api[name]
	s.lock.Unlock()
	if !ok {
		s.logger.Debug("unsupported endpoint", zap.String("name", name))
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	status, response := handler(body)
	s.write(w, status, response)
}

func (s *Server) callRPC(w http.ResponseWriter, body []byte) {
	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.write(w, http.StatusBadRequest, []byte(err.Error()))
		return
	}

	s.lock.Lock()
	s.calls = append(s.calls, request)
	raw, rawOK := s.rawRPC[request.Method]
	handler, ok := s.rpc[request.Method]
	s.lock.Unlock()

	if rawOK {
		status, response := raw(body)
		s.write(w, status, response)
		return
	}

	resp := response{JSONRPC: "2.0", ID: request.ID}
	if !ok {
		resp.Error = &Error{
			Code:    codeMethodNotFound,
			Message: fmt.Sprintf("the method %s does not exist/is not available", request.Method),
		}
	} else if result, err := handler(request); err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			rpcErr = &Error{Code: codeInternal, Message: err.Error()}
		}
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.write(w, http.StatusInternalServerError, []byte(err.Error()))
		return
	}
	s.write(w, http.StatusOK, data)
}

func (s *Server) write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}
