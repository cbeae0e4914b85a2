// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"github.com/rwproxy/rwproxy/pkg/metrics"
)

func succeedToLabel(succeed bool) string {
	if succeed {
		return "succeed"
	}
	return "fail"
}

func addSelectionMetrics(criteria SelectionCriteria, succeed bool) {
	metrics.SelectionCounter.WithLabelValues(criteria.String(), succeedToLabel(succeed)).Inc()
}

func readSelectionCounter(criteria SelectionCriteria, succeed bool) (int, error) {
	return metrics.ReadCounter(metrics.SelectionCounter.WithLabelValues(criteria.String(), succeedToLabel(succeed)))
}

func addSlaveConnectMetrics(addr string, succeed bool) {
	metrics.SlaveConnectCounter.WithLabelValues(addr, succeedToLabel(succeed)).Inc()
}

func setBackendConnMetrics(addr string, conns int) {
	metrics.BackendConnGauge.WithLabelValues(addr).Set(float64(conns))
}
