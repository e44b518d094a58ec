package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersConfirmedTotal counts order confirmation attempts by result.
	OrdersConfirmedTotal *prometheus.CounterVec
	// CartMutationsTotal counts cart add/remove/clear calls by result.
	CartMutationsTotal *prometheus.CounterVec
	// BillsComputedTotal counts bill computations by result.
	BillsComputedTotal *prometheus.CounterVec
	// OrderTotal records the tax-exclusive total of confirmed orders.
	OrderTotal prometheus.Histogram
	// TasksProcessedTotal counts background tasks handled by the worker.
	TasksProcessedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersConfirmedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_confirmed_total",
			Help:      "Count of order confirmation outcomes.",
		}, []string{"result"})
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and outcome.",
		}, []string{"op", "result"})
		BillsComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_computed_total",
			Help:      "Count of bill computations by outcome.",
		}, []string{"result"})
		OrderTotal = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total",
			Help:      "Distribution of confirmed order totals.",
			Buckets:   []float64{0, 100, 500, 1000, 5000, 10000, 50000, 100000},
		})
		TasksProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Count of background tasks processed by type and outcome.",
		}, []string{"type", "result"})

		mustRegisterCollector(reg, OrdersConfirmedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersConfirmedTotal = v
			}
		})
		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, BillsComputedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillsComputedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderTotal = v
			}
		})
		mustRegisterCollector(reg, TasksProcessedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TasksProcessedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

// Result maps an error to the outcome label used by the domain counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// The helpers below are no-ops until MustRegisterDomainMetrics has run, so
// services can be exercised in tests without a registry.

// RecordOrderConfirmed observes one confirmation attempt.
func RecordOrderConfirmed(result string, total float64) {
	if OrdersConfirmedTotal != nil {
		OrdersConfirmedTotal.WithLabelValues(result).Inc()
	}
	if result == "ok" && OrderTotal != nil {
		OrderTotal.Observe(total)
	}
}

// RecordCartMutation observes one cart mutation.
func RecordCartMutation(op, result string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op, result).Inc()
	}
}

// RecordBillComputed observes one bill computation.
func RecordBillComputed(result string) {
	if BillsComputedTotal != nil {
		BillsComputedTotal.WithLabelValues(result).Inc()
	}
}

// RecordTaskProcessed observes one background task.
func RecordTaskProcessed(taskType, result string) {
	if TasksProcessedTotal != nil {
		TasksProcessedTotal.WithLabelValues(taskType, result).Inc()
	}
}
