package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels relays that returned a success envelope.
const OutcomeOK = "ok"

// Relay groups the collectors the warranty relay reports.
type Relay struct {
	Submissions      *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
	UpstreamStatus   *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// NewRelay creates and registers the relay collectors on reg.
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warranty_relay_submissions_total",
				Help: "Relay requests by outcome (ok or error kind)",
			},
			[]string{"outcome"},
		),
		UpstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warranty_relay_upstream_duration_seconds",
				Help:    "Duration of the outbound upstream call in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
		),
		UpstreamStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warranty_relay_upstream_responses_total",
				Help: "Upstream responses by HTTP status code",
			},
			[]string{"code"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "warranty_relay_rate_limited_total",
				Help: "Relay requests rejected by the per-client rate limiter",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Submissions, m.UpstreamDuration, m.UpstreamStatus, m.RateLimited)
	}
	return m
}

// ObserveOutcome counts one finished relay request.
func (m *Relay) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records one upstream round trip.
func (m *Relay) ObserveUpstream(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.Observe(elapsed.Seconds())
	m.UpstreamStatus.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveRateLimited counts one rejected request.
func (m *Relay) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
