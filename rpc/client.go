package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/status-im/status-backend-tests/logutils"
)

const (
	// DefaultCallTimeout is a default timeout for an RPC call
	DefaultCallTimeout = time.Minute
	// DefaultRequestID is used when the caller does not supply an id.
	DefaultRequestID = 1

	jsonrpcVersion = "2.0"
	apiPath        = "/statusgo"
	callRPCName    = "CallRPC"
	healthName     = "health"
)

// Request is an outgoing JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Client talks to the HTTP API of a single status-backend. It keeps no state
// between calls and is safe for concurrent use. Request ids are supplied by
// the caller, who is responsible for keeping them unique when that matters.
type Client struct {
	baseURL string
	apiURL  string
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout of a single HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetries retries requests failing at the transport level or answered
// with 503 while the backend is still starting. Other responses, errors
// included, are returned as they are.
func WithRetries(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.http.
			SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(4 * wait).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				return err != nil || resp.StatusCode() == http.StatusServiceUnavailable
			})
	}
}

// WithRateLimit spaces requests to at most one per interval, allowing bursts
// of burst requests. Waiting for a slot honours the request context.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), burst)
	}
}

// NewClient returns a client for the status-backend listening at baseURL,
// e.g. http://127.0.0.1:3333.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		apiURL:  baseURL + apiPath,
		http: resty.New().
			SetTimeout(DefaultCallTimeout).
			SetHeader("Content-Type", "application/json"),
		logger: logutils.ZapLogger().Named("RPCClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends a JSON-RPC request through CallRPC and returns the response
// whatever its content. Only transport failures are returned as errors. A nil
// params is sent as an empty list, a nil id as DefaultRequestID.
func (c *Client) Call(ctx context.Context, method string, params interface{}, id interface{}) (*Response, error) {
	if params == nil {
		params = []interface{}{}
	}
	if id == nil {
		id = DefaultRequestID
	}
	request := Request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
	return c.post(ctx, c.apiURL+"/"+callRPCName, request)
}

// CallValid is Call that also requires a successful response: status 200, a
// non-empty JSON body and no error. Anything else is a *ProtocolViolation.
func (c *Client) CallValid(ctx context.Context, method string, params interface{}, id interface{}) (*Response, error) {
	resp, err := c.Call(ctx, method, params, id)
	if err != nil {
		return nil, err
	}
	return resp, resp.Validate()
}

// APIRequest posts data as JSON to the /statusgo/<endpoint> API endpoint.
func (c *Client) APIRequest(ctx context.Context, endpoint string, data interface{}) (*Response, error) {
	return c.post(ctx, c.apiURL+"/"+endpoint, data)
}

// APIValidRequest is APIRequest with the validation of CallValid.
func (c *Client) APIValidRequest(ctx context.Context, endpoint string, data interface{}) (*Response, error) {
	resp, err := c.APIRequest(ctx, endpoint, data)
	if err != nil {
		return nil, err
	}
	return resp, resp.Validate()
}

// Health probes the /health endpoint of the backend. Any 200 response means
// the backend is up.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	resp, err := c.post(ctx, c.baseURL+"/"+healthName, []interface{}{})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, resp.violation("unexpected status code")
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, url string, data interface{}) (*Response, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: url, Err: err}
		}
	}
	c.logger.Debug("sending request", zap.String("url", url), zap.Any("data", data))

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(data).
		Post(url)
	if err != nil {
		c.logger.Debug("request failed", zap.String("url", url), zap.Error(err))
		return nil, &TransportError{URL: url, Err: err}
	}

	response := newResponse(url, resp.StatusCode(), resp.Body())
	c.logger.Debug("got response",
		zap.String("url", url),
		zap.Int("status", response.StatusCode),
		zap.ByteString("body", response.Body))
	return response, nil
}
