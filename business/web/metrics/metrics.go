// Package metrics maintains the prometheus metrics exposed by the node on
// its debug host.
package metrics

import (
	"net/http"

	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// Metrics holds the request counters and the registry they are exposed from.
type Metrics struct {
	Requests prometheus.Counter
	Errors   prometheus.Counter
	Appends  prometheus.Counter
	registry *prometheus.Registry
}

// New constructs the metrics and registers a collector over the chain.
func New(ch *chain.Chain) *Metrics {
	m := Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "requests_total",
			Help:      "Total number of web requests handled.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "errors_total",
			Help:      "Total number of web requests that returned an error.",
		}),
		Appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "appends_total",
			Help:      "Total number of blocks appended since startup.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.Requests, m.Errors, m.Appends, NewChainCollector(ch))

	return &m
}

// Handler returns the http handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather returns the current metric families. It's used by tests.
func (m *Metrics) Gather() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	return values, nil
}

// =============================================================================

// ChainCollector reports the state of the chain at scrape time.
type ChainCollector struct {
	chain     *chain.Chain
	length    *prometheus.Desc
	indexSize *prometheus.Desc
	valid     *prometheus.Desc
}

// NewChainCollector constructs a collector for the chain.
func NewChainCollector(ch *chain.Chain) *ChainCollector {
	return &ChainCollector{
		chain: ch,
		length: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "length"),
			"Number of blocks in the chain including genesis.",
			nil, nil,
		),
		indexSize: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "index_size"),
			"Number of payloads held in the hash index.",
			nil, nil,
		),
		valid: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "valid"),
			"1 when every block matches its hash and links to its parent.",
			nil, nil,
		),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.length
	ch <- c.indexSize
	ch <- c.valid
}

// Collect implements the prometheus.Collector interface.
func (c *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	valid := 0.0
	if c.chain.Validate() {
		valid = 1
	}

	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(c.chain.Length()))
	ch <- prometheus.MustNewConstMetric(c.indexSize, prometheus.GaugeValue, float64(c.chain.IndexSize()))
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, valid)
}
