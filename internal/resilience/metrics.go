package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "billing",
		Name:      "outbound_breaker_state",
		Help:      "Breaker position per target: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "outbound_breaker_transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"})
	breakerOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "outbound_breaker_open_total",
		Help:      "Times a breaker opened.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(breakerState, breakerTransitions, breakerOpened)
}
