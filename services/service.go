// Package services wraps the JSON-RPC namespaces status-backend exposes
// through CallRPC.
package services

import (
	"context"

	"github.com/status-im/status-backend-tests/rpc"
)

// Caller is the subset of *rpc.Client used by services.
type Caller interface {
	Call(ctx context.Context, method string, params interface{}, id interface{}) (*rpc.Response, error)
	CallValid(ctx context.Context, method string, params interface{}, id interface{}) (*rpc.Response, error)
}

// Service calls the methods of one namespace, e.g. wakuext_peers.
type Service struct {
	client    Caller
	namespace string
}

func New(client Caller, namespace string) Service {
	return Service{client: client, namespace: namespace}
}

func (s Service) Namespace() string {
	return s.namespace
}

// Method returns the full RPC method name.
func (s Service) Method(name string) string {
	return s.namespace + "_" + name
}

// Call calls the method with positional params and requires a valid response.
func (s Service) Call(ctx context.Context, name string, params ...interface{}) (*rpc.Response, error) {
	return s.client.CallValid(ctx, s.Method(name), positional(params), nil)
}

// CallUnchecked is Call without response validation.
func (s Service) CallUnchecked(ctx context.Context, name string, params ...interface{}) (*rpc.Response, error) {
	return s.client.Call(ctx, s.Method(name), positional(params), nil)
}

// CallWithID is Call with an explicit request id.
func (s Service) CallWithID(ctx context.Context, id interface{}, name string, params ...interface{}) (*rpc.Response, error) {
	return s.client.CallValid(ctx, s.Method(name), positional(params), id)
}

// CallResult calls the method and decodes its result into result.
func (s Service) CallResult(ctx context.Context, result interface{}, name string, params ...interface{}) error {
	resp, err := s.Call(ctx, name, params...)
	if err != nil {
		return err
	}
	return resp.UnmarshalResult(result)
}

func positional(params []interface{}) []interface{} {
	if params == nil {
		return []interface{}{}
	}
	return params
}
