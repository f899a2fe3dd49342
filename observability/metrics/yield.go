package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// YieldMetrics exposes counters and gauges for the accrual engines.
type YieldMetrics struct {
	operations          *prometheus.CounterVec
	payouts             *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
	totalStaked         prometheus.Gauge
	accRewardPerShare   prometheus.Gauge
	assetsMinted        prometheus.Counter
}

var (
	yieldOnce     sync.Once
	yieldRegistry *YieldMetrics
)

// Yield returns the lazily registered yield metrics.
func Yield() *YieldMetrics {
	yieldOnce.Do(func() {
		yieldRegistry = &YieldMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "yield_operations_total",
				Help: "Engine operations segmented by component, operation and outcome.",
			}, []string{"component", "operation", "outcome"}),
			payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "yield_payouts_total",
				Help: "Token amounts paid out by component and payout kind.",
			}, []string{"component", "kind"}),
			invariantViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "yield_invariant_violations_total",
				Help: "Payouts refused because the funding balance could not honour them.",
			}, []string{"component"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "yield_farm_total_staked",
				Help: "Stake currently held by the pool accumulator.",
			}),
			accRewardPerShare: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "yield_farm_acc_reward_per_share",
				Help: "Current accumulator value (scaled by 1e12).",
			}),
			assetsMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "yield_ferment_assets_minted_total",
				Help: "Assets created through mint or compound.",
			}),
		}
		prometheus.MustRegister(
			yieldRegistry.operations,
			yieldRegistry.payouts,
			yieldRegistry.invariantViolations,
			yieldRegistry.totalStaked,
			yieldRegistry.accRewardPerShare,
			yieldRegistry.assetsMinted,
		)
	})
	return yieldRegistry
}

// ObserveOperation counts an engine call. A nil error is recorded as "ok".
func (m *YieldMetrics) ObserveOperation(component, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(component, operation, outcome).Inc()
}

// ObservePayout adds a paid amount. Amounts are converted to float64 for
// export only; engines never read them back.
func (m *YieldMetrics) ObservePayout(component, kind string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.payouts.WithLabelValues(component, kind).Add(toFloat(amount))
}

// IncInvariantViolation records a refused payout.
func (m *YieldMetrics) IncInvariantViolation(component string) {
	if m == nil {
		return
	}
	m.invariantViolations.WithLabelValues(component).Inc()
}

// SetPool updates the pool gauges.
func (m *YieldMetrics) SetPool(totalStaked, accRewardPerShare *big.Int) {
	if m == nil {
		return
	}
	m.totalStaked.Set(toFloat(totalStaked))
	m.accRewardPerShare.Set(toFloat(accRewardPerShare))
}

// AddMinted counts newly created assets.
func (m *YieldMetrics) AddMinted(count uint64) {
	if m == nil || count == 0 {
		return
	}
	m.assetsMinted.Add(float64(count))
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
