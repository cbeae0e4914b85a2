// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	LblCriteria = "criteria"
)

var (
	ConnGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleProxy,
			Subsystem: LabelServer,
			Name:      "connections",
			Help:      "Number of client connections.",
		})

	SelectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleProxy,
			Subsystem: LabelSession,
			Name:      "backend_selection",
			Help:      "Counter of session backend selections.",
		}, []string{LblCriteria, LblRes})

	SlaveConnectCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleProxy,
			Subsystem: LabelSession,
			Name:      "slave_connect",
			Help:      "Counter of slave connection attempts.",
		}, []string{LblBackend, LblRes})
)
