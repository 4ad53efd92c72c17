package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), c)
	require.Equal(t, AnvilNetworkID, c.AnvilNetworkID)
	require.False(t, c.Proxy.Enabled())
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(lookupFrom(map[string]string{
		EnvStatusBackendURLs: " http://127.0.0.1:3333, ,http://127.0.0.1:3334",
		EnvUseIPv6:           "Yes",
		EnvProxyUser:         "user",
		EnvProxyPassword:     "secret",
		EnvHealthTimeout:     "3s",
		EnvAnvilNetworkID:    "1337",
		EnvLogSignalsToFile:  "true",
		EnvSignalsDir:        "/tmp/signals",
		EnvAnvilURL:          "http://localhost:9545",
		EnvWakuFleet:         "waku.test",
		EnvSignalTimeout:     "1m",
		EnvRPCRetries:        "2",
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"http://127.0.0.1:3333", "http://127.0.0.1:3334"}, c.StatusBackendURLs)
	require.True(t, c.UseIPv6)
	require.True(t, c.Proxy.Enabled())
	require.Equal(t, "secret", c.Proxy.Password)
	require.Equal(t, 3*time.Second, c.HealthTimeout)
	require.Equal(t, time.Minute, c.SignalTimeout)
	require.Equal(t, uint64(1337), c.AnvilNetworkID)
	require.True(t, c.LogSignalsToFile)
	require.Equal(t, "/tmp/signals/signal_sender.log", c.SignalLogPath("sender"))
	require.Equal(t, "http://localhost:9545", c.AnvilURL)
	require.Equal(t, "waku.test", c.WakuFleet)
	require.Equal(t, 2, c.RPCRetries)
}

func TestFromEnvInvalidDuration(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{EnvHealthTimeout: "soon"}))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ANVIL_NETWORK_ID=4242\n"), 0600))
	t.Cleanup(func() { os.Unsetenv(EnvAnvilNetworkID) })

	c, err := Load(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	require.Equal(t, uint64(4242), c.AnvilNetworkID)
}

func TestFromEnvValidation(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"invalid backend url", map[string]string{EnvStatusBackendURLs: "http://127.0.0.1:3333,not a url"}},
		{"invalid anvil url", map[string]string{EnvAnvilURL: "anvil"}},
		{"zero network id", map[string]string{EnvAnvilNetworkID: "0"}},
		{"negative timeout", map[string]string{EnvSignalTimeout: "-1s"}},
		{"proxy without password", map[string]string{EnvProxyUser: "user"}},
		{"negative retries", map[string]string{EnvRPCRetries: "-1"}},
		{"invalid retries", map[string]string{EnvRPCRetries: "many"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tc.env))
			require.Error(t, err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.DataDir = ""
	require.Error(t, c.Validate())
}
