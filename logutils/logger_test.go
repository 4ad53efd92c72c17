package logutils

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zap.InfoLevel,
		"DEBUG": zap.DebugLevel,
		"trace": zap.DebugLevel,
		"eror":  zap.ErrorLevel,
		"ERROR": zap.ErrorLevel,
		"warn":  zap.WarnLevel,
	}
	for in, expected := range cases {
		lvl, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, expected, lvl, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewFileLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "signals.log")
	logger := NewFileLogger(FileOptions{Filename: filename, MaxSize: 1, MaxBackups: 1})

	logger.Info("signal", zap.String("type", "wallet"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"wallet"`)
}

func TestOverrideRootLoggerConcurrently(t *testing.T) {
	original := ZapLogger()
	t.Cleanup(func() { OverrideRootLogger(original) })

	core, logs := observer.New(zap.InfoLevel)
	observed := zap.New(core)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ZapLogger().Debug("tick")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		OverrideRootLogger(observed)
	}
	wg.Wait()

	require.Same(t, observed, ZapLogger())
	ZapLogger().Info("overridden")
	require.Equal(t, 1, logs.FilterMessage("overridden").Len())
}
