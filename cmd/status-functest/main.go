package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/logutils"
	"github.com/status-im/status-backend-tests/metrics"
	"github.com/status-im/status-backend-tests/params"
)

const (
	EnvFileFlag     = "env-file"
	URLFlag         = "url"
	LogLevelFlag    = "log-level"
	MetricsPortFlag = "metrics-port"
	TimeoutFlag     = "timeout"
	IDFlag          = "id"
	CountFlag       = "count"
	MatchFlag       = "match"
	RegexpFlag      = "regexp"
	RetriesFlag     = "retries"
	FamilyFlag      = "family"
	LabelFlag       = "label"
)

var logger = logutils.ZapLogger().Named("status-functest")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "status-functest",
		Usage: "Probe a running status-backend the way the functional tests do",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  EnvFileFlag,
				Usage: "dotenv files to load before the environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    URLFlag,
				Aliases: []string{"u"},
				Usage:   "status-backend base URL, defaults to the first of " + params.EnvStatusBackendURLs,
			},
			&cli.StringFlag{
				Name:  LogLevelFlag,
				Usage: "log level, overrides " + params.EnvLogLevel,
			},
			&cli.IntFlag{
				Name:  MetricsPortFlag,
				Usage: "serve prometheus metrics on this port, 0 disables",
			},
			&cli.IntFlag{
				Name:  RetriesFlag,
				Usage: "retry unreachable or starting backends, overrides " + params.EnvRPCRetries,
				Value: -1,
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			healthCommand(),
			callCommand(),
			waitCommand(),
			metricsCommand(),
		},
	}
}

// setup loads the configuration, applies the log level and starts the
// metrics server. The configuration is stored in the app metadata.
func setup(cCtx *cli.Context) error {
	config, err := params.Load(cCtx.StringSlice(EnvFileFlag)...)
	if err != nil {
		return err
	}
	if level := cCtx.String(LogLevelFlag); level != "" {
		config.LogLevel = level
	}
	if retries := cCtx.Int(RetriesFlag); retries >= 0 {
		config.RPCRetries = retries
	}
	if err := logutils.SetLogLevel(config.LogLevel); err != nil {
		return err
	}

	if port := cCtx.Int(MetricsPortFlag); port > 0 {
		server := metrics.NewMetricsServer(port, nil)
		go server.Listen()
		logger.Info("metrics server started", zap.Int("port", port))
	}

	if cCtx.App.Metadata == nil {
		cCtx.App.Metadata = map[string]interface{}{}
	}
	cCtx.App.Metadata[configKey] = config
	return nil
}
