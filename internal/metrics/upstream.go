package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "usagedash"

// Upstream provider Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"provider", "outcome"}, // ok, network_error, http_error, parse_error
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider"},
	)

	OpenRouterPercentRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "openrouter_credit_percent_remaining",
			Help:      "Last observed OpenRouter credit percentage remaining",
		},
	)

	CopilotIncludedPercentUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "copilot_included_percent_used",
			Help:      "Last observed share of the included Copilot premium quota used",
		},
	)

	CodexWindowUsedPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "codex_window_used_percent",
			Help:      "Last observed Codex rate-limit window usage",
		},
		[]string{"block", "window"}, // block: general/code_review, window: primary/secondary
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers Prometheus provider metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(OpenRouterPercentRemaining)
	prometheus.MustRegister(CopilotIncludedPercentUsed)
	prometheus.MustRegister(CodexWindowUsedPercent)
	upstreamMetricsRegistered = true
}
