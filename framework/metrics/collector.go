// Package metrics exposes bean lifecycle metrics to Prometheus.
//
// A Collector is itself a bean post-processor: added to a factory (or handed
// to the application context with app.WithMetrics) it times every bean's
// initialization between the before and after hooks.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-spring/framework/beans"
)

const namespace = "gospring"

// Collector holds the lifecycle metrics of one application context.
type Collector struct {
	registry *prometheus.Registry

	InitDuration     prometheus.Histogram
	BeansInitialized prometheus.Counter
	Beans            *prometheus.GaugeVec
	Errors           *prometheus.CounterVec
	Refreshes        prometheus.Counter

	mu      sync.Mutex
	started map[string]time.Time
}

// NewCollector creates a collector backed by its own registry, which also
// carries the Go runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		InitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bean_init_duration_seconds",
			Help:      "Time between the before and after initialization hooks of a bean",
			Buckets:   prometheus.DefBuckets,
		}),
		BeansInitialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "beans_initialized_total",
			Help:      "Beans that went through both initialization hooks",
		}),
		Beans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beans",
			Help:      "Registered singletons by stereotype",
		}, []string{"stereotype"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bean_errors_total",
			Help:      "Bean lifecycle failures by kind",
		}, []string{"kind"}),
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_refreshes_total",
			Help:      "Completed application context refreshes",
		}),
		started: make(map[string]time.Time),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.InitDuration,
		c.BeansInitialized,
		c.Beans,
		c.Errors,
		c.Refreshes,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ── beans.PostProcessor ───────────────────────────────────────────────────────

// PostProcessBeforeInitialization starts the clock for name. The bean is
// returned unchanged.
func (c *Collector) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	c.mu.Lock()
	c.started[name] = time.Now()
	c.mu.Unlock()
	return bean, nil
}

// PostProcessAfterInitialization observes the time since the before hook.
func (c *Collector) PostProcessAfterInitialization(bean any, name string) (any, error) {
	c.mu.Lock()
	start, ok := c.started[name]
	delete(c.started, name)
	c.mu.Unlock()

	if ok {
		c.InitDuration.Observe(time.Since(start).Seconds())
	}
	c.BeansInitialized.Inc()
	return bean, nil
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// ObserveFactory sets the bean gauge from the factory's registry.
func (c *Collector) ObserveFactory(f *beans.Factory) {
	counts := map[string]float64{
		beans.ComponentStereotype.String(): 0,
		beans.ServiceStereotype.String():   0,
	}
	for _, info := range f.Beans() {
		counts[info.Stereotype]++
	}
	for stereotype, n := range counts {
		c.Beans.WithLabelValues(stereotype).Set(n)
	}
}

// RecordErrors counts every bean failure carried by err. A failed bean never
// reaches the after hook, so its pending timing is dropped here.
func (c *Collector) RecordErrors(err error) {
	failed := beans.BeanErrors(err)

	c.mu.Lock()
	for _, be := range failed {
		delete(c.started, be.Bean)
	}
	c.mu.Unlock()

	for _, be := range failed {
		kind := string(be.Kind)
		if kind == "" {
			kind = "unknown"
		}
		c.Errors.WithLabelValues(kind).Inc()
	}
}

// InFlight returns how many beans passed the before hook but not the after hook.
func (c *Collector) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.started)
}

// RecordRefresh marks one completed refresh.
func (c *Collector) RecordRefresh() { c.Refreshes.Inc() }
