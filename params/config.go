package params

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	validator "gopkg.in/go-playground/validator.v9"
)

// Environment variables understood by Load.
const (
	EnvStatusBackendURLs   = "STATUS_BACKEND_URLS"
	EnvAnvilURL            = "ANVIL_URL"
	EnvUseIPv6             = "USE_IPV6"
	EnvUserDir             = "USER_DIR"
	EnvWakuFleet           = "WAKU_FLEET"
	EnvWakuFleetsConfig    = "WAKU_FLEETS_CONFIG"
	EnvPassword            = "STATUS_PASSWORD"
	EnvProxyUser           = "STATUS_BUILD_PROXY_USER"
	EnvProxyPassword       = "STATUS_BUILD_PROXY_PASSWORD"
	EnvLogSignalsToFile    = "LOG_SIGNALS_TO_FILE"
	EnvSignalsDir          = "SIGNALS_DIR"
	EnvLogout              = "FUNCTIONAL_TESTS_LOGOUT"
	EnvHealthTimeout       = "STATUS_BACKEND_HEALTH_TIMEOUT"
	EnvSignalTimeout       = "STATUS_BACKEND_SIGNAL_TIMEOUT"
	EnvAnvilNetworkID      = "ANVIL_NETWORK_ID"
	EnvAnvilBackendRPCURL  = "ANVIL_BACKEND_RPC_URL"
	EnvLogLevel            = "LOG_LEVEL"
	EnvRPCRetries          = "STATUS_BACKEND_RPC_RETRIES"
	defaultSignalsDirName  = "signals"
	defaultBackendUserDir  = "/usr/status-user"
	defaultAnvilBackendURL = "http://anvil:8545"
)

// ProxyCredentials are passed to the backend when the build proxy is used.
type ProxyCredentials struct {
	User     string
	Password string
}

// Enabled reports whether credentials were configured.
func (p ProxyCredentials) Enabled() bool {
	return p.User != ""
}

// Config holds everything a functional test run needs to reach the backends
// under test and the local chain.
type Config struct {
	// StatusBackendURLs are pre-provisioned status-backend base URLs.
	StatusBackendURLs []string `validate:"dive,url"`
	// AnvilURL is the chain test node as seen from the test process.
	AnvilURL string `validate:"required,url"`
	// AnvilBackendRPCURL is the chain test node as seen from the backend container.
	AnvilBackendRPCURL string `validate:"required,url"`
	AnvilNetworkID     uint64 `validate:"gt=0"`
	UseIPv6            bool
	// DataDir is the backend data directory.
	DataDir          string `validate:"required"`
	WakuFleet        string
	WakuFleetsConfig string
	Password         string `validate:"required"`
	Proxy            ProxyCredentials
	LogSignalsToFile bool
	SignalsDir       string
	// Logout makes InitializeApplication log out a previously logged in account first.
	Logout        bool
	HealthTimeout time.Duration `validate:"gt=0"`
	SignalTimeout time.Duration `validate:"gt=0"`
	LogLevel      string
	// RPCRetries is how often a request to the backend is retried while the
	// backend is unreachable or still starting.
	RPCRetries int `validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		AnvilURL:           "http://127.0.0.1:8545",
		AnvilBackendRPCURL: defaultAnvilBackendURL,
		AnvilNetworkID:     AnvilNetworkID,
		DataDir:            defaultBackendUserDir,
		WakuFleet:          "status.prod",
		Password:           User1.Password,
		SignalsDir:         defaultSignalsDirName,
		HealthTimeout:      10 * time.Second,
		SignalTimeout:      20 * time.Second,
		LogLevel:           "info",
	}
}

// Load reads the given dotenv files (missing files are ignored) and then the
// process environment. Values already present in the environment win over
// dotenv files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	c := DefaultConfig()

	if v, ok := lookup(EnvStatusBackendURLs); ok {
		c.StatusBackendURLs = splitList(v)
	}
	if v, ok := lookup(EnvAnvilURL); ok && v != "" {
		c.AnvilURL = v
	}
	if v, ok := lookup(EnvAnvilBackendRPCURL); ok && v != "" {
		c.AnvilBackendRPCURL = v
	}
	if v, ok := lookup(EnvUseIPv6); ok {
		c.UseIPv6 = parseYes(v)
	}
	if v, ok := lookup(EnvUserDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvWakuFleet); ok && v != "" {
		c.WakuFleet = v
	}
	if v, ok := lookup(EnvWakuFleetsConfig); ok {
		c.WakuFleetsConfig = v
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		c.Password = v
	}
	if v, ok := lookup(EnvProxyUser); ok {
		c.Proxy.User = v
		c.Proxy.Password, _ = lookup(EnvProxyPassword)
	}
	if v, ok := lookup(EnvLogSignalsToFile); ok {
		c.LogSignalsToFile = parseYes(v)
	}
	if v, ok := lookup(EnvSignalsDir); ok && v != "" {
		c.SignalsDir = v
	}
	if v, ok := lookup(EnvLogout); ok {
		c.Logout = parseYes(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}

	var err error
	if v, ok := lookup(EnvAnvilNetworkID); ok && v != "" {
		c.AnvilNetworkID, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvAnvilNetworkID, err)
		}
	}
	if v, ok := lookup(EnvRPCRetries); ok && v != "" {
		c.RPCRetries, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRPCRetries, err)
		}
	}
	if v, ok := lookup(EnvHealthTimeout); ok && v != "" {
		c.HealthTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHealthTimeout, err)
		}
	}
	if v, ok := lookup(EnvSignalTimeout); ok && v != "" {
		c.SignalTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSignalTimeout, err)
		}
	}

	return c, c.Validate()
}

// Validate checks the struct tags and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Proxy.Enabled() && c.Proxy.Password == "" {
		return fmt.Errorf("%s is set, but %s is empty", EnvProxyUser, EnvProxyPassword)
	}
	if c.LogSignalsToFile && c.SignalsDir == "" {
		return fmt.Errorf("%s is enabled, but %s is empty", EnvLogSignalsToFile, EnvSignalsDir)
	}
	return nil
}

// SignalLogPath returns the file received signals of the named backend are
// written to when LogSignalsToFile is set.
func (c *Config) SignalLogPath(name string) string {
	return filepath.Join(c.SignalsDir, fmt.Sprintf("signal_%s.log", name))
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseYes accepts the "Yes"/"No" convention of the docker-compose files as
// well as regular booleans.
func parseYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1", "on":
		return true
	}
	return false
}
