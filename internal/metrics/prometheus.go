// Package metrics implements core.MetricMonitor with Prometheus counters,
// a per-kind CounterVec set registered once at startup via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Actor holds the Prometheus counters for the actor core.
type Actor struct {
	RaisesTotal            *prometheus.CounterVec
	RaiseFailuresTotal     *prometheus.CounterVec
	RecoveriesTotal        *prometheus.CounterVec
	ArchivePromotionsTotal *prometheus.CounterVec
	ArchiveClearsTotal     *prometheus.CounterVec
	BusFallbacksTotal      *prometheus.CounterVec
}

// NewActor registers and returns the actor-core metric set.
func NewActor() *Actor {
	return &Actor{
		RaisesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "raises_total",
			Help:      "Total number of events successfully raised, by aggregate kind.",
		}, []string{"state_kind"}),
		RaiseFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "raise_duplicates_total",
			Help:      "Total number of raise calls rejected as duplicates, by aggregate kind.",
		}, []string{"state_kind"}),
		RecoveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "recoveries_total",
			Help:      "Total number of snapshot recoveries, by aggregate kind.",
		}, []string{"state_kind"}),
		ArchivePromotionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "archive_promotions_total",
			Help:      "Total number of pending archives promoted into the brief list.",
		}, []string{"state_kind"}),
		ArchiveClearsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "archive_clears_total",
			Help:      "Total number of archive briefs whose events were cleared.",
		}, []string{"state_kind"}),
		BusFallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventactor",
			Name:      "bus_fallbacks_total",
			Help:      "Total number of publishes that fell back from primary to secondary fan-out.",
		}, []string{"state_kind"}),
	}
}

func (m *Actor) IncRaise(stateKind string)    { m.RaisesTotal.WithLabelValues(stateKind).Inc() }
func (m *Actor) IncRecovery(stateKind string) { m.RecoveriesTotal.WithLabelValues(stateKind).Inc() }

func (m *Actor) IncRaiseFailed(stateKind string) {
	m.RaiseFailuresTotal.WithLabelValues(stateKind).Inc()
}

func (m *Actor) IncArchivePromotion(stateKind string) {
	m.ArchivePromotionsTotal.WithLabelValues(stateKind).Inc()
}

func (m *Actor) IncArchiveCleared(stateKind string) {
	m.ArchiveClearsTotal.WithLabelValues(stateKind).Inc()
}

func (m *Actor) IncBusFallback(stateKind string) {
	m.BusFallbacksTotal.WithLabelValues(stateKind).Inc()
}
