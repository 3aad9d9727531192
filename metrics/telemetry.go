// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes process wide meters. Until InitializePrometheusMetrics
// is called every meter is a no-op, so packages can declare meters at init time.
package metrics

import (
	"net/http"
	"sync"
)

var (
	metricsMu sync.RWMutex
	metrics   = defaultNoopMetrics()
)

func current() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return metrics
}

// Metrics is implemented by the meter backends.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter
	GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter
	GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter
	GetOrCreateHandler() http.Handler
}

// HTTPHandler returns the handler serving the scrape endpoint, nil when metrics are disabled.
func HTTPHandler() http.Handler {
	return current().GetOrCreateHandler()
}

// Enabled reports whether a real backend is installed.
func Enabled() bool {
	_, ok := current().(*noopMetrics)
	return !ok
}

var (
	// BucketHTTPReqs is in milliseconds.
	BucketHTTPReqs = []int64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}
	// BucketCount suits small cardinalities such as validator set or solution sizes.
	BucketCount = []int64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}
)

// HistogramMeter aggregates observations into buckets.
type HistogramMeter interface {
	Observe(int64)
}

func Histogram(name string, buckets []int64) HistogramMeter {
	return current().GetOrCreateHistogramMeter(name, buckets)
}

// HistogramVecMeter is a labelled HistogramMeter.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return current().GetOrCreateHistogramVecMeter(name, labels, buckets)
}

// CountMeter only goes up.
type CountMeter interface {
	Add(int64)
}

func Counter(name string) CountMeter { return current().GetOrCreateCountMeter(name) }

// CountVecMeter is a labelled CountMeter.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

func CounterVec(name string, labels []string) CountVecMeter {
	return current().GetOrCreateCountVecMeter(name, labels)
}

// GaugeMeter holds a value that may go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

func Gauge(name string) GaugeMeter { return current().GetOrCreateGaugeMeter(name) }

// GaugeVecMeter is a labelled GaugeMeter.
type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return current().GetOrCreateGaugeVecMeter(name, labels)
}

// LazyLoad defers creating a meter until first use, which lets a package
// declare meters as vars before the backend is chosen.
func LazyLoad[T any](f func() T) func() T {
	return sync.OnceValue(f)
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}
