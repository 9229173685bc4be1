package helpers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BacktestSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtester_submissions_total",
		Help: "Backtest submissions by result",
	}, []string{"result"})

	LogFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtester_log_fetches_total",
		Help: "Log tail fetches by result",
	}, []string{"result"})

	LogLinesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtester_log_lines_total",
		Help: "Log lines appended to the buffer",
	})

	PollSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backtester_poll_sessions_active",
		Help: "Number of running poll sessions, 0 or 1",
	})
)

// ServeMetrics exposes /metrics on addr until the listener fails.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			Logger.Errorln("metrics: " + err.Error())
		}
	}()
}
