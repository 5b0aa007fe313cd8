// Package metrics holds the Prometheus collectors for hook activity.
package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "routedhook"

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	SwapsTotal      *prometheus.CounterVec
	SwapLatency     prometheus.Histogram
	ThrottledTotal  *prometheus.CounterVec
	FeesTotal       *prometheus.CounterVec
	SharesMinted    prometheus.Counter
	SharesBurned    prometheus.Counter
	ClaimsTotal     prometheus.Counter
	ReplayedBlocks  prometheus.Counter
	ReplayLastBlock prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SwapsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "swaps_total",
				Help:      "Swaps seen by the hook by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		SwapLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "before_swap_seconds",
				Help:      "Time spent pricing and settling a swap",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ThrottledTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "throttled_total",
				Help:      "Swaps rejected by the per-block direction throttle",
			},
			[]string{"direction"},
		),
		FeesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "fees_total",
				Help:      "Dynamic fees in base units by share",
			},
			[]string{"share"},
		),
		SharesMinted: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "shares_minted_total",
				Help:      "Liquidity share tokens minted",
			},
		),
		SharesBurned: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "shares_burned_total",
				Help:      "Liquidity share tokens burned",
			},
		),
		ClaimsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hook",
				Name:      "claims_total",
				Help:      "Retained fee claims paid out",
			},
		),
		ReplayedBlocks: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "replay",
				Name:      "blocks_total",
				Help:      "Blocks replayed",
			},
		),
		ReplayLastBlock: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "replay",
				Name:      "last_block",
				Help:      "Last replayed block",
			},
		),
	}
}

func (m *Metrics) ObserveSwap(strategy, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.SwapsTotal.WithLabelValues(strategy, outcome).Inc()
	m.SwapLatency.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveThrottle(zeroForOne bool) {
	if m == nil {
		return
	}
	direction := "one_for_zero"
	if zeroForOne {
		direction = "zero_for_one"
	}
	m.ThrottledTotal.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveFee(retained, donated *big.Int) {
	if m == nil {
		return
	}
	m.FeesTotal.WithLabelValues("retained").Add(toFloat(retained))
	m.FeesTotal.WithLabelValues("donated").Add(toFloat(donated))
}

func (m *Metrics) ObserveShares(minted bool, amount *big.Int) {
	if m == nil {
		return
	}
	if minted {
		m.SharesMinted.Add(toFloat(amount))
		return
	}
	m.SharesBurned.Add(toFloat(amount))
}

func (m *Metrics) ObserveClaim() {
	if m == nil {
		return
	}
	m.ClaimsTotal.Inc()
}

func (m *Metrics) ObserveBlock(block uint64) {
	if m == nil {
		return
	}
	m.ReplayedBlocks.Inc()
	m.ReplayLastBlock.Set(float64(block))
}

func toFloat(v *big.Int) float64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
