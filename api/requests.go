package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/status-im/status-backend-tests/params"
)

const (
	kdfIterations             = 256000
	defaultCustomizationColor = "primary"
	backendLogLevel           = "DEBUG"
	anvilChainName            = "Anvil"
	proxyStageName            = "test"
)

// TokenOverride points a token symbol at a contract deployed on the test chain.
type TokenOverride struct {
	Symbol  string         `json:"symbol"`
	Address common.Address `json:"address"`
}

// AccountOptions tune CreateAccountAndLogin and RestoreAccountAndLogin.
type AccountOptions struct {
	DisplayName        string
	Password           string
	CustomizationColor string
	LightClient        bool
	NetworkID          uint64
	TokenOverrides     []TokenOverride
}

type AccountOption func(*AccountOptions)

func WithDisplayName(name string) AccountOption {
	return func(o *AccountOptions) {
		o.DisplayName = name
	}
}

func WithPassword(password string) AccountOption {
	return func(o *AccountOptions) {
		o.Password = password
	}
}

func WithCustomizationColor(color string) AccountOption {
	return func(o *AccountOptions) {
		o.CustomizationColor = color
	}
}

// WithLightClient makes the account use waku light mode.
func WithLightClient(enabled bool) AccountOption {
	return func(o *AccountOptions) {
		o.LightClient = enabled
	}
}

func WithNetworkID(id uint64) AccountOption {
	return func(o *AccountOptions) {
		o.NetworkID = id
	}
}

func WithTokenOverrides(overrides []TokenOverride) AccountOption {
	return func(o *AccountOptions) {
		o.TokenOverrides = overrides
	}
}

func newAccountOptions(config *params.Config, user params.Account, opts []AccountOption) *AccountOptions {
	o := &AccountOptions{
		DisplayName:        randomDisplayName(),
		Password:           user.Password,
		CustomizationColor: defaultCustomizationColor,
		NetworkID:          config.AnvilNetworkID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func randomDisplayName() string {
	return "DISP_NAME_" + uuid.NewString()[:10]
}

func anvilNetwork(config *params.Config, o *AccountOptions) map[string]interface{} {
	network := map[string]interface{}{
		"chainID":   o.NetworkID,
		"chainName": anvilChainName,
		"rpcProviders": []map[string]interface{}{
			{
				"chainId":          o.NetworkID,
				"name":             "Anvil Direct",
				"url":              config.AnvilBackendRPCURL,
				"enableRpsLimiter": false,
				"type":             "embedded-direct",
				"enabled":          true,
				"authType":         "no-auth",
			},
		},
		"shortName":              "eth",
		"nativeCurrencyName":     "Ether",
		"nativeCurrencySymbol":   "ETH",
		"nativeCurrencyDecimals": 18,
		"isTest":                 false,
		"layer":                  1,
		"enabled":                true,
		"isActive":               true,
		"isDeactivatable":        false,
	}
	if len(o.TokenOverrides) > 0 {
		network["TokenOverrides"] = o.TokenOverrides
	}
	return network
}

func setProxyCredentials(config *params.Config, data map[string]interface{}) {
	if !config.Proxy.Enabled() {
		return
	}
	data["StatusProxyMarketUser"] = config.Proxy.User
	data["StatusProxyMarketPassword"] = config.Proxy.Password
	data["StatusProxyBlockchainUser"] = config.Proxy.User
	data["StatusProxyBlockchainPassword"] = config.Proxy.Password
	data["StatusProxyEnabled"] = true
	data["StatusProxyStageName"] = proxyStageName
}

func createAccountRequest(config *params.Config, o *AccountOptions) map[string]interface{} {
	data := map[string]interface{}{
		"rootDataDir":         config.DataDir,
		"kdfIterations":       kdfIterations,
		"displayName":         o.DisplayName,
		"password":            o.Password,
		"customizationColor":  o.CustomizationColor,
		"logEnabled":          true,
		"logLevel":            backendLogLevel,
		"wakuV2LightClient":   o.LightClient,
		"wakuV2Fleet":         config.WakuFleet,
		"testNetworksEnabled": false,
		"networkId":           o.NetworkID,
		"networksOverride":    []map[string]interface{}{anvilNetwork(config, o)},
	}
	setProxyCredentials(config, data)
	return data
}

func loginRequest(config *params.Config, keyUID string, user params.Account) map[string]interface{} {
	data := map[string]interface{}{
		"password":      user.Password,
		"keyUid":        keyUID,
		"kdfIterations": kdfIterations,
	}
	setProxyCredentials(config, data)
	return data
}

func initializeApplicationRequest(config *params.Config) map[string]interface{} {
	return map[string]interface{}{
		"dataDir":                  config.DataDir,
		"logEnabled":               true,
		"logLevel":                 backendLogLevel,
		"apiLogging":               true,
		"wakuFleetsConfigFilePath": config.WakuFleetsConfig,
	}
}
