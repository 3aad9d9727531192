// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPrometheusMeters(t *testing.T) {
	lazy := LazyLoadCounter("lazy_total")

	InitializePrometheusMetrics()
	InitializePrometheusMetrics()
	require.True(t, Enabled())

	Counter("eras_total").Add(2)
	Counter("eras_total").Add(3)
	CounterVec("submissions_total", []string{"result"}).AddWithLabel(1, map[string]string{"result": "accepted"})
	CounterVec("submissions_total", []string{"result"}).AddWithLabel(4, map[string]string{"result": "rejected"})
	Gauge("validators").Set(7)
	Gauge("validators").Add(-2)
	GaugeVec("pool_tvl", []string{"pool"}).SetWithLabel(100, map[string]string{"pool": "1"})
	GaugeVec("pool_tvl", []string{"pool"}).AddWithLabel(-40, map[string]string{"pool": "1"})
	Histogram("solution_size", BucketCount).Observe(3)
	Histogram("solution_size", BucketCount).Observe(5)
	HistogramVec("call_ms", []string{"op"}, BucketHTTPReqs).ObserveWithLabels(12, map[string]string{"op": "bond"})
	lazy().Add(1)

	mf := gather(t)
	assert.Equal(t, float64(5), mf["npos_metrics_eras_total"].Metric[0].GetCounter().GetValue())
	assert.Len(t, mf["npos_metrics_submissions_total"].Metric, 2)
	assert.Equal(t, float64(5), mf["npos_metrics_validators"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(60), mf["npos_metrics_pool_tvl"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, uint64(2), mf["npos_metrics_solution_size"].Metric[0].GetHistogram().GetSampleCount())
	assert.Equal(t, float64(8), mf["npos_metrics_solution_size"].Metric[0].GetHistogram().GetSampleSum())
	assert.Equal(t, float64(12), mf["npos_metrics_call_ms"].Metric[0].GetHistogram().GetSampleSum())
	assert.Equal(t, float64(1), mf["npos_metrics_lazy_total"].Metric[0].GetCounter().GetValue())

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "npos_metrics_eras_total 5")
}

func TestRegisterReusesExisting(t *testing.T) {
	opts := prometheus.GaugeOpts{Namespace: namespace, Name: "reused"}
	first := register(prometheus.NewGauge(opts))
	second := register(prometheus.NewGauge(opts))
	first.Set(9)
	assert.Same(t, first, second)
}
