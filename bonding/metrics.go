package bonding

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krazyTry/redao-go/bonding/shared"
)

// Metrics exports engine activity to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	bonds            *prometheus.CounterVec
	quoteBonded      *prometheus.CounterVec
	redemptions      *prometheus.CounterVec
	topups           *prometheus.CounterVec
	epochTransitions *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	totalEmissions   *prometheus.GaugeVec
	epoch            *prometheus.GaugeVec
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bonds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "bonds_total",
			Help:      "Committed bonds.",
		}, []string{"token"}),
		quoteBonded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "quote_bonded_total",
			Help:      "Post-fee quote routed to the reserve and surplus pools, in base units.",
		}, []string{"token"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "redemptions_total",
			Help:      "Redeemed coupons.",
		}, []string{"token"}),
		topups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "topups_total",
			Help:      "Base vault top-ups.",
		}, []string{"token"}),
		epochTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "epoch_transitions_total",
			Help:      "Bonds that advanced the emission epoch.",
		}, []string{"token"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redao",
			Name:      "rejections_total",
			Help:      "Rejected operations by error name.",
		}, []string{"op", "error"}),
		totalEmissions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redao",
			Name:      "total_emissions",
			Help:      "Total base emissions of a token.",
		}, []string{"token"}),
		epoch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redao",
			Name:      "epoch",
			Help:      "Current emission epoch of a token.",
		}, []string{"token"}),
	}
	reg.MustRegister(
		m.bonds,
		m.quoteBonded,
		m.redemptions,
		m.topups,
		m.epochTransitions,
		m.rejections,
		m.totalEmissions,
		m.epoch,
	)
	return m
}

func (m *Metrics) observeState(s *TokenState) {
	if m == nil {
		return
	}
	token := s.Key().String()
	m.totalEmissions.WithLabelValues(token).Set(float64(s.TotalEmissions))
	m.epoch.WithLabelValues(token).Set(float64(s.EpochCount))
}

func (m *Metrics) observeBond(res *BondResult) {
	if m == nil {
		return
	}
	token := res.State.Key().String()
	m.bonds.WithLabelValues(token).Inc()
	m.quoteBonded.WithLabelValues(token).Add(float64(res.AmountPostFee))
	if res.EpochTransition {
		m.epochTransitions.WithLabelValues(token).Inc()
	}
	m.observeState(res.State)
}

func (m *Metrics) observeRedeem(s *TokenState) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(s.Key().String()).Inc()
}

func (m *Metrics) observeTopup(s *TokenState) {
	if m == nil {
		return
	}
	m.topups.WithLabelValues(s.Key().String()).Inc()
}

func (m *Metrics) observeReject(op string, err error) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(op, shared.NameOf(err)).Inc()
}
