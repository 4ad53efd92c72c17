package main

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/metrics"
	"github.com/status-im/status-backend-tests/params"
	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/signal"
)

const configKey = "config"

var errNoURL = errors.New("no status-backend URL, use --url or " + params.EnvStatusBackendURLs)

func appConfig(cCtx *cli.Context) *params.Config {
	return cCtx.App.Metadata[configKey].(*params.Config)
}

func backendURL(cCtx *cli.Context) (string, error) {
	if url := cCtx.String(URLFlag); url != "" {
		return url, nil
	}
	urls := appConfig(cCtx).StatusBackendURLs
	if len(urls) == 0 {
		return "", errNoURL
	}
	return urls[0], nil
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Wait until the backend answers /health",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  TimeoutFlag,
				Usage: "give up after this long, defaults to " + params.EnvHealthTimeout,
			},
		},
		Action: func(cCtx *cli.Context) error {
			url, err := backendURL(cCtx)
			if err != nil {
				return err
			}
			timeout := cCtx.Duration(TimeoutFlag)
			if timeout == 0 {
				timeout = appConfig(cCtx).HealthTimeout
			}

			client := rpc.NewClient(url, api.RPCOptions(appConfig(cCtx), logger.Named("RPC"))...)
			var resp *rpc.Response
			err = api.WaitForHealthy(cCtx.Context, func(ctx context.Context) error {
				resp, err = client.Health(ctx)
				return err
			}, timeout, logger)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cCtx.App.Writer, "%s\n", resp.Body)
			return err
		},
	}
}

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call a JSON-RPC method through CallRPC",
		ArgsUsage: "<method> [params as JSON list]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  IDFlag,
				Usage: "request id",
				Value: rpc.DefaultRequestID,
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() < 1 {
				return cli.Exit("method is required", 2)
			}
			url, err := backendURL(cCtx)
			if err != nil {
				return err
			}

			var callParams interface{}
			if raw := cCtx.Args().Get(1); raw != "" {
				if !json.Valid([]byte(raw)) {
					return cli.Exit("params must be valid JSON", 2)
				}
				callParams = json.RawMessage(raw)
			}

			client := rpc.NewClient(url, api.RPCOptions(appConfig(cCtx), logger.Named("RPC"))...)
			resp, err := client.CallValid(cCtx.Context, cCtx.Args().First(), callParams, cCtx.Int(IDFlag))
			if resp != nil {
				if _, werr := fmt.Fprintf(cCtx.App.Writer, "%s\n", resp.Body); werr != nil {
					return werr
				}
			}
			return err
		},
	}
}

func waitCommand() *cli.Command {
	return &cli.Command{
		Name:      "wait",
		Usage:     "Print signals of a type as they arrive",
		ArgsUsage: "<signal type>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  TimeoutFlag,
				Usage: "give up after this long, defaults to " + params.EnvSignalTimeout,
			},
			&cli.IntFlag{
				Name:  CountFlag,
				Usage: "number of signals to wait for",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  MatchFlag,
				Usage: "only accept signals whose event contains this text",
			},
			&cli.StringFlag{
				Name:  RegexpFlag,
				Usage: "only accept signals whose event matches this regular expression",
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("signal type is required", 2)
			}
			typ := signal.SignalType(cCtx.Args().First())
			match, err := eventMatcher(cCtx.String(MatchFlag), cCtx.String(RegexpFlag))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			url, err := backendURL(cCtx)
			if err != nil {
				return err
			}
			streamURL, err := signal.StreamURL(url)
			if err != nil {
				return err
			}
			timeout := cCtx.Duration(TimeoutFlag)
			if timeout == 0 {
				timeout = appConfig(cCtx).SignalTimeout
			}

			ctx, cancel := context.WithTimeout(cCtx.Context, timeout)
			defer cancel()

			client := signal.NewClient(streamURL, signal.WithLogger(logger.Named("Signals")))
			if err := client.Connect(ctx); err != nil {
				return err
			}
			defer client.Close()

			envelopes, err := client.WaitAll(ctx, typ, match, cCtx.Int(CountFlag))
			if err != nil {
				return err
			}
			for _, env := range envelopes {
				if _, err := fmt.Fprintln(cCtx.App.Writer, env.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "Print the value of a counter scraped from a /metrics endpoint",
		ArgsUsage: "<metrics url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     FamilyFlag,
				Usage:    "counter family, e.g. functest_signal_waits_total",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  LabelFlag,
				Usage: "only sum series with this name=value label, repeatable",
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("metrics url is required", 2)
			}
			labels, err := parseLabels(cCtx.StringSlice(LabelFlag))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			families, err := metrics.Scrape(cCtx.Context, cCtx.Args().First())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cCtx.App.Writer, "%g\n", metrics.CounterValue(families, cCtx.String(FamilyFlag), labels))
			return err
		},
	}
}

func parseLabels(pairs []string) (map[string]string, error) {
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("invalid label %q, want name=value", pair)
		}
		labels[name] = value
	}
	return labels, nil
}

// eventMatcher builds a predicate over the raw event payload.
func eventMatcher(substring, expr string) (signal.Predicate, error) {
	if substring != "" && expr != "" {
		return nil, errors.Errorf("--%s and --%s are exclusive", MatchFlag, RegexpFlag)
	}
	if expr != "" {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.Wrap(err, "invalid regexp")
		}
		return signal.MatchesRegexp(re), nil
	}
	if substring != "" {
		return signal.Contains(substring), nil
	}
	return nil, nil
}
