// Package metrics exposes Prometheus instruments for the ledger, the reward
// calculator and the integrity index.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mic"

var (
	// ledgerWrites counts appended entries.
	// Labels: reason
	ledgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "writes_total",
		Help:      "Ledger entries appended, by reason",
	}, []string{"reason"})

	// ledgerAmount sums appended amounts, split by sign.
	// Labels: direction (credit, debit)
	ledgerAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "amount_total",
		Help:      "Absolute MIC amount appended, by direction",
	}, []string{"direction"})

	// ledgerRejections counts writes refused before reaching storage.
	// Labels: code (circuit_breaker_active, invalid_input, internal)
	ledgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "rejections_total",
		Help:      "Ledger writes rejected, by reason code",
	}, []string{"code"})

	// rewardOutcomes counts reward calculations.
	// Labels: outcome (minted, zero, accuracy_too_low, circuit_breaker_active)
	rewardOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rewards",
		Name:      "outcomes_total",
		Help:      "Reward calculations by outcome",
	}, []string{"outcome"})

	giiValue = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "integrity",
		Name:      "gii",
		Help:      "Most recently observed Global Integrity Index",
	})

	// giiRefreshes counts remote refresh attempts.
	// Labels: status (success, error)
	giiRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "integrity",
		Name:      "refreshes_total",
		Help:      "Remote integrity index refresh attempts by status",
	}, []string{"status"})
)

// RecordLedgerWrite records one appended entry. amount is the signed value.
func RecordLedgerWrite(reason string, amount float64) {
	ledgerWrites.WithLabelValues(reason).Inc()
	if amount >= 0 {
		ledgerAmount.WithLabelValues("credit").Add(amount)
	} else {
		ledgerAmount.WithLabelValues("debit").Add(-amount)
	}
}

// RecordLedgerRejection records a refused write by its reason code.
func RecordLedgerRejection(code string) {
	ledgerRejections.WithLabelValues(code).Inc()
}

// Reward outcome labels.
const (
	OutcomeMinted         = "minted"
	OutcomeZero           = "zero"
	OutcomeAccuracyTooLow = "accuracy_too_low"
	OutcomeCircuitBreaker = "circuit_breaker_active"
)

// RecordRewardOutcome records one reward calculation.
func RecordRewardOutcome(outcome string) {
	rewardOutcomes.WithLabelValues(outcome).Inc()
}

// SetGII publishes the latest observed integrity index.
func SetGII(v float64) {
	giiValue.Set(v)
}

// RecordGIIRefresh records a remote refresh attempt.
func RecordGIIRefresh(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	giiRefreshes.WithLabelValues(status).Inc()
}
