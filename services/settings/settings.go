// Package settings wraps the settings API of status-backend.
package settings

import (
	"context"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services"
)

const namespace = "settings"

type Service struct {
	services.Service
}

func New(client services.Caller) *Service {
	return &Service{Service: services.New(client, namespace)}
}

// GetSettings returns the settings of the logged in account.
func (s *Service) GetSettings(ctx context.Context) (map[string]interface{}, error) {
	var settings map[string]interface{}
	err := s.CallResult(ctx, &settings, "getSettings")
	return settings, err
}

// SaveSetting stores a single setting by its JSON name.
func (s *Service) SaveSetting(ctx context.Context, name string, value interface{}) (*rpc.Response, error) {
	return s.Call(ctx, "saveSetting", name, value)
}
