package signal

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	waitOutcomeSatisfied    = "satisfied"
	waitOutcomeTimeout      = "timeout"
	waitOutcomeStreamClosed = "stream_closed"
	waitOutcomeCancelled    = "cancelled"
)

var (
	signalsReceived = prom.NewCounterVec(prom.CounterOpts{
		Name: "functest_signals_received_total",
		Help: "Signals received from status-backend split by type.",
	}, []string{"type"})
	signalDecodeErrors = prom.NewCounter(prom.CounterOpts{
		Name: "functest_signal_decode_errors_total",
		Help: "Signal frames dropped because they could not be decoded.",
	})
	signalWaits = prom.NewCounterVec(prom.CounterOpts{
		Name: "functest_signal_waits_total",
		Help: "Finished signal waits split by type and outcome.",
	}, []string{"type", "outcome"})
)

func init() {
	prom.MustRegister(signalsReceived)
	prom.MustRegister(signalDecodeErrors)
	prom.MustRegister(signalWaits)
}

func recordWait(typ SignalType, err error) {
	outcome := waitOutcomeSatisfied
	switch {
	case err == nil:
	case isTimeout(err):
		outcome = waitOutcomeTimeout
	case isStreamClosed(err):
		outcome = waitOutcomeStreamClosed
	default:
		outcome = waitOutcomeCancelled
	}
	signalWaits.WithLabelValues(string(typ), outcome).Inc()
}
