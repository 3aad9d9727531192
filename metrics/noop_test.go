// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopMeters(t *testing.T) {
	m := defaultNoopMetrics()

	assert.Nil(t, m.GetOrCreateHandler())
	for _, meter := range []any{
		m.GetOrCreateCountMeter("c"),
		m.GetOrCreateCountVecMeter("cv", []string{"kind"}),
		m.GetOrCreateGaugeMeter("g"),
		m.GetOrCreateGaugeVecMeter("gv", nil),
		m.GetOrCreateHistogramMeter("h", BucketCount),
		m.GetOrCreateHistogramVecMeter("hv", nil, nil),
	} {
		assert.Same(t, noop, meter)
	}

	// labels not declared on the vector are accepted silently
	assert.NotPanics(t, func() {
		m.GetOrCreateCountVecMeter("cv", []string{"kind"}).AddWithLabel(1, map[string]string{"other": "x"})
		m.GetOrCreateGaugeVecMeter("gv", nil).SetWithLabel(1, map[string]string{"other": "x"})
		m.GetOrCreateHistogramVecMeter("hv", nil, nil).ObserveWithLabels(1, nil)
	})
}
