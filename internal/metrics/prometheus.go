package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	registry      *prom.Registry
	buildDuration prom.Histogram
	checkDuration prom.Histogram
	pagesRendered prom.Gauge
	catalogSize   prom.Gauge
	brokenLinks   prom.Gauge
	linksChecked  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the corpusctl metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "corpusctl",
		Name:      "build_duration_seconds",
		Help:      "Total site build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.checkDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "corpusctl",
		Name:      "linkcheck_duration_seconds",
		Help:      "Total link check run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.pagesRendered = prom.NewGauge(prom.GaugeOpts{
		Namespace: "corpusctl",
		Name:      "pages_rendered",
		Help:      "Pages rendered in the last build",
	})
	pr.catalogSize = prom.NewGauge(prom.GaugeOpts{
		Namespace: "corpusctl",
		Name:      "catalog_entries",
		Help:      "Catalog entries extracted in the last build",
	})
	pr.brokenLinks = prom.NewGauge(prom.GaugeOpts{
		Namespace: "corpusctl",
		Name:      "broken_links",
		Help:      "Broken links found in the last check run",
	})
	pr.linksChecked = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "corpusctl",
		Name:      "links_checked_total",
		Help:      "Link verifications by result",
	}, []string{"result"})
	reg.MustRegister(pr.buildDuration, pr.checkDuration, pr.pagesRendered, pr.catalogSize, pr.brokenLinks, pr.linksChecked)
	return pr
}

// Handler exposes the registry for the preview server's /metrics endpoint.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveCheckDuration(d time.Duration) {
	p.checkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetPagesRendered(n int) { p.pagesRendered.Set(float64(n)) }
func (p *PrometheusRecorder) SetCatalogSize(n int)   { p.catalogSize.Set(float64(n)) }
func (p *PrometheusRecorder) SetBrokenLinks(n int)   { p.brokenLinks.Set(float64(n)) }

func (p *PrometheusRecorder) IncLinksChecked(result string) {
	p.linksChecked.WithLabelValues(result).Inc()
}
