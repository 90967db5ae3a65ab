package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taller"

// Metrics colectores Prometheus del motor de órdenes. Implementa repairorder.Recorder.
type Metrics struct {
	registry         *prometheus.Registry
	transitions      *prometheus.CounterVec
	stockUnits       *prometheus.CounterVec
	optimizations    *prometheus.CounterVec
	optimizeDuration *prometheus.HistogramVec
}

// New registra los colectores en un registro propio (más los del proceso y runtime de Go).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Transiciones de estado de órdenes por origen, destino y resultado.",
		}, []string{"from", "to", "result"}),
		stockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_total",
			Help:      "Unidades reservadas o liberadas por el libro de stock.",
		}, []string{"type"}),
		optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizations_total",
			Help:      "Ejecuciones del optimizador por objetivo y estrategia (exact | heuristic | failed).",
		}, []string{"objective", "strategy"}),
		optimizeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimize_duration_seconds",
			Help:      "Duración del cálculo de selección de órdenes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"objective"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions, m.stockUnits, m.optimizations, m.optimizeDuration,
	)
	return m
}

// TransitionObserved cuenta una transición (result: ok, insufficient_stock, invalid_transition, not_found, error).
func (m *Metrics) TransitionObserved(from, to, result string) {
	m.transitions.WithLabelValues(from, to, result).Inc()
}

// StockMoved suma unidades reservadas (reserve) o liberadas (release).
func (m *Metrics) StockMoved(kind string, units int) {
	m.stockUnits.WithLabelValues(kind).Add(float64(units))
}

// OptimizationObserved registra una ejecución del optimizador.
func (m *Metrics) OptimizationObserved(objective, strategy string, elapsed time.Duration) {
	m.optimizations.WithLabelValues(objective, strategy).Inc()
	m.optimizeDuration.WithLabelValues(objective).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato de texto Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry acceso directo (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
