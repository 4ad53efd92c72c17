package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// Response is a status-backend HTTP response. The JSON-RPC fields are filled
// when the body is a JSON object.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte

	JSONRPC string
	ID      json.RawMessage
	Result  json.RawMessage
	// Error is the raw `error` member. status-backend API endpoints report
	// errors as plain strings, CallRPC as JSON-RPC error objects.
	Error json.RawMessage

	decodeErr error
}

type responseBody struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

func newResponse(url string, status int, body []byte) *Response {
	r := &Response{
		URL:        url,
		StatusCode: status,
		Body:       body,
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return r
	}
	if !json.Valid(trimmed) {
		r.decodeErr = errors.New("invalid JSON in response")
		return r
	}
	if trimmed[0] != '{' {
		return r
	}
	var decoded responseBody
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		r.decodeErr = err
		return r
	}
	r.JSONRPC = decoded.JSONRPC
	r.ID = decoded.ID
	r.Result = decoded.Result
	r.Error = decoded.Error
	return r
}

// UnmarshalResult decodes the `result` member into v.
func (r *Response) UnmarshalResult(v interface{}) error {
	if len(r.Result) == 0 {
		return errors.New("response has no result")
	}
	return json.Unmarshal(r.Result, v)
}

// Unmarshal decodes the whole body into v.
func (r *Response) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// HasError reports whether the `error` member is populated. Null, empty
// strings, empty objects and arrays, false and 0 are not errors.
func (r *Response) HasError() bool {
	return populated(r.Error)
}

// RPCError returns the decoded JSON-RPC error object, or nil when the error
// member is absent or not an object.
func (r *Response) RPCError() *Error {
	if !r.HasError() {
		return nil
	}
	var rpcErr Error
	if err := json.Unmarshal(r.Error, &rpcErr); err != nil {
		return nil
	}
	return &rpcErr
}

// Validate checks the response the way CallValid and APIValidRequest do.
func (r *Response) Validate() error {
	switch {
	case r.StatusCode != http.StatusOK:
		return r.violation("unexpected status code")
	case len(bytes.TrimSpace(r.Body)) == 0:
		return r.violation("empty response body")
	case r.decodeErr != nil:
		return r.violation(r.decodeErr.Error())
	case r.HasError():
		return r.violation("error: " + string(r.Error))
	}
	return nil
}

func (r *Response) violation(reason string) *ProtocolViolation {
	return &ProtocolViolation{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Reason:     reason,
	}
}

func populated(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value != ""
	case []interface{}:
		return len(value) > 0
	case map[string]interface{}:
		return len(value) > 0
	}
	return true
}
