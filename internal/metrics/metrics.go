package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nftlend"

var (
	// Operations public pool operations by result
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "pool operations by name and result code",
	}, []string{"operation", "result"})

	// Liquidations successful liquidations by protocol
	Liquidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "liquidations_total",
		Help:      "successful liquidations",
	}, []string{"protocol"})

	// Auctions auction transitions
	Auctions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auction_transitions_total",
		Help:      "auction starts, ends and settlements",
	}, []string{"transition"})

	// Accounts scanned accounts by risk state
	Accounts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "accounts",
		Help:      "borrowers by risk state of the last scan",
	}, []string{"state"})

	// ReserveIndex accrual indices by asset
	ReserveIndex = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reserve_index",
		Help:      "liquidity and variable borrow index",
	}, []string{"asset", "index"})

	// ReserveUtilization utilization by asset
	ReserveUtilization = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reserve_utilization",
		Help:      "debt / (liquidity + debt)",
	}, []string{"asset"})
)

func init() {
	prometheus.MustRegister(
		Operations,
		Liquidations,
		Auctions,
		Accounts,
		ReserveIndex,
		ReserveUtilization,
	)
}
