// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/npos/log"
)

const namespace = "npos_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics installs the prometheus backend. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	meters sync.Map // kind/name -> meter
}

func (o *prometheusMetrics) getOrCreate(kind, name string, create func() any) any {
	key := kind + "/" + name
	if m, ok := o.meters.Load(key); ok {
		return m
	}
	m, _ := o.meters.LoadOrStore(key, create())
	return m
}

// register returns the already registered collector when the same name was
// registered before, so meters survive repeated creation across backends.
func register[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		logger.Warn("unable to register metric", "err", err)
	}
	return c
}

func floatBuckets(buckets []int64) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, float64(b))
	}
	return out
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	return o.getOrCreate("counter", name, func() any {
		c := register(prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name}))
		return &promCountMeter{counter: c}
	}).(CountMeter)
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	return o.getOrCreate("counterVec", name, func() any {
		c := register(prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels))
		return &promCountVecMeter{counter: c}
	}).(CountVecMeter)
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	return o.getOrCreate("gauge", name, func() any {
		g := register(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name}))
		return &promGaugeMeter{gauge: g}
	}).(GaugeMeter)
}

func (o *prometheusMetrics) GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter {
	return o.getOrCreate("gaugeVec", name, func() any {
		g := register(prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels))
		return &promGaugeVecMeter{gauge: g}
	}).(GaugeVecMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	return o.getOrCreate("histogram", name, func() any {
		h := register(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}))
		return &promHistogramMeter{histogram: h}
	}).(HistogramMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	return o.getOrCreate("histogramVec", name, func() any {
		h := register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels))
		return &promHistogramVecMeter{histogram: h}
	}).(HistogramVecMeter)
}

type promCountMeter struct{ counter prometheus.Counter }

func (c *promCountMeter) Add(i int64) { c.counter.Add(float64(i)) }

type promCountVecMeter struct{ counter *prometheus.CounterVec }

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct{ gauge prometheus.Gauge }

func (g *promGaugeMeter) Add(i int64) { g.gauge.Add(float64(i)) }
func (g *promGaugeMeter) Set(i int64) { g.gauge.Set(float64(i)) }

type promGaugeVecMeter struct{ gauge *prometheus.GaugeVec }

func (g *promGaugeVecMeter) AddWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Add(float64(i))
}

func (g *promGaugeVecMeter) SetWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Set(float64(i))
}

type promHistogramMeter struct{ histogram prometheus.Histogram }

func (h *promHistogramMeter) Observe(i int64) { h.histogram.Observe(float64(i)) }

type promHistogramVecMeter struct{ histogram *prometheus.HistogramVec }

func (h *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
