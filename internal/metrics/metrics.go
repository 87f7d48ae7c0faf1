package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records game activity across all sessions. It satisfies
// session.Observer.
type Collector struct {
	clicks      *prometheus.CounterVec
	ticks       prometheus.Counter
	transitions *prometheus.CounterVec
	sessions    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector registers its metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bubblerush",
			Name:      "clicks_total",
			Help:      "Clicks handled, by outcome.",
		}, []string{"outcome"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bubblerush",
			Name:      "ticks_total",
			Help:      "Timer ticks applied to running rounds.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bubblerush",
			Name:      "transitions_total",
			Help:      "State machine transitions, by destination state.",
		}, []string{"to"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bubblerush",
			Name:      "sessions_open",
			Help:      "Game sessions currently open.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(c.clicks, c.ticks, c.transitions, c.sessions)
	return c
}

func (c *Collector) ObserveClick(outcome string) {
	c.clicks.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveTick() {
	c.ticks.Inc()
}

func (c *Collector) ObserveTransition(from, to string) {
	c.transitions.WithLabelValues(to).Inc()
}

func (c *Collector) SessionOpened() {
	c.sessions.Inc()
}

func (c *Collector) SessionClosed() {
	c.sessions.Dec()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
