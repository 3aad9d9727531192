// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/vechain/npos/metrics"
)

var (
	metricCriteriaLengthBucket = metrics.LazyLoadHistogram("logdb_criteria_length_bucket", []int64{0, 2, 5, 10, 25, 100, 1000})
	metricEventQueryParameters = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrderCounter    = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricOffsetBucket         = metrics.LazyLoadHistogram("logdb_query_offset_bucket", []int64{
		0, 1_000, 5_000, 10_000, 25_000, 50_000, 100_000, 250_000, 500_000, 1_000_000,
	})
	metricLimitBucket = metrics.LazyLoadHistogram("logdb_query_limit_bucket", []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
	metricWrittenEvents = metrics.LazyLoadCounter("logdb_written_events_count")
)

func metricsHandleEventsFilter(filter *EventFilter) {
	if !metrics.Enabled() {
		return
	}

	metricCriteriaLengthBucket().Observe(int64(len(filter.CriteriaSet)))

	order := "asc"
	if filter.Order == DESC {
		order = "desc"
	}
	metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": order})

	if filter.Options != nil {
		metricOffsetBucket().Observe(int64(min(filter.Options.Offset, 1_000_001)))
		metricLimitBucket().Observe(int64(min(filter.Options.Limit, 1001)))
	}

	for _, c := range filter.CriteriaSet {
		paramsUsed := make([]string, 0, 3)
		if c.Module != "" {
			paramsUsed = append(paramsUsed, "module")
		}
		if c.Name != "" {
			paramsUsed = append(paramsUsed, "name")
		}
		if c.Account != nil {
			paramsUsed = append(paramsUsed, "account")
		}
		metricEventQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(paramsUsed, ",")})
	}
}
