// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

const (
	ModuleProxy = "rwproxy"
)

// metrics labels.
const (
	LabelServer  = "server"
	LabelBackend = "backend"
	LabelSession = "session"
	LabelMonitor = "monitor"
)

// RegisterProxyMetrics registers all the proxy metrics.
func RegisterProxyMetrics() {
	prometheus.DefaultRegisterer.Unregister(collectors.NewGoCollector())
	prometheus.MustRegister(collectors.NewGoCollector(collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsGC, collectors.MetricsMemory)))

	prometheus.MustRegister(ConnGauge)
	prometheus.MustRegister(SelectionCounter)
	prometheus.MustRegister(SlaveConnectCounter)
	prometheus.MustRegister(BackendStatusGauge)
	prometheus.MustRegister(BackendConnGauge)
	prometheus.MustRegister(PingBackendGauge)
	prometheus.MustRegister(HealthCheckCycleGauge)
}

// ReadCounter reads the value from the counter. It is only used for testing.
func ReadCounter(counter prometheus.Counter) (int, error) {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return 0, err
	}
	return int(metric.Counter.GetValue()), nil
}

// ReadGauge reads the value from the gauge. It is only used for testing.
func ReadGauge(gauge prometheus.Gauge) (float64, error) {
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		return 0, err
	}
	return metric.Gauge.GetValue(), nil
}
