package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespaceRaffle = "raffle"
	namespaceOracle = "oracle"
)

var (
	// Entries accepted entries count
	Entries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceRaffle,
			Name:      "entries_total",
			Help:      "Number of accepted raffle entries",
		})

	// UpkeepsPerformed upkeeps that moved the raffle to calculating
	UpkeepsPerformed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceRaffle,
			Name:      "upkeeps_performed_total",
			Help:      "Number of performed upkeeps",
		})

	// WinnersPicked settled rounds count
	WinnersPicked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceRaffle,
			Name:      "winners_picked_total",
			Help:      "Number of settled rounds",
		})

	// SettlementFailures failed payout attempts
	SettlementFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespaceRaffle,
			Name:      "settlement_failures_total",
			Help:      "Number of failed payout transfers",
		})

	// PooledBalance balance of the current round
	PooledBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespaceRaffle,
			Name:      "pooled_balance",
			Help:      "Pooled balance of the current round",
		})

	// CurrentRound id of the current round
	CurrentRound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespaceRaffle,
			Name:      "current_round",
			Help:      "Id of the current round",
		})

	// FulfillmentLatency time between the randomness request and its
	// fulfillment.
	FulfillmentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespaceOracle,
			Name:      "fulfillment_latency_seconds",
			Help:      "Seconds elapsed between randomness request and fulfillment",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"raffle"})
)

func init() {
	prometheus.MustRegister(
		Entries,
		UpkeepsPerformed,
		WinnersPicked,
		SettlementFailures,
		PooledBalance,
		CurrentRound,
		FulfillmentLatency,
	)
}

// ObserveFulfillment records the latency of a randomness fulfillment.
func ObserveFulfillment(raffle string, requestedAt, fulfilledAt int64) {
	latency := time.Unix(fulfilledAt, 0).Sub(time.Unix(requestedAt, 0))
	FulfillmentLatency.WithLabelValues(raffle).Observe(latency.Seconds())
}
