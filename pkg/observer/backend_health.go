// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package observer

import (
	"fmt"

	"github.com/rwproxy/rwproxy/pkg/route"
)

type BackendHealth struct {
	BackendInfo
	Healthy bool
	// Role is the replication role discovered by the monitor connection.
	Role route.Role
	// Rlag is the replication lag in seconds, -1 when unknown.
	Rlag int64
	// The error occurred when health check fails. It's used to log why the backend becomes unhealthy.
	PingErr error
	// ServerVersion is reported by the backend on the monitor connection.
	ServerVersion string
}

func (bh *BackendHealth) Equals(health BackendHealth) bool {
	return bh.Healthy == health.Healthy && bh.Role == health.Role && bh.ServerVersion == health.ServerVersion
}

func (bh *BackendHealth) String() string {
	str := "down"
	if bh.Healthy {
		str = fmt.Sprintf("healthy, role: %s, rlag: %d", bh.Role.String(), bh.Rlag)
	}
	if bh.PingErr != nil {
		str += fmt.Sprintf(", err: %s", bh.PingErr.Error())
	}
	return str
}

// BackendInfo stores the static declaration of one backend.
type BackendInfo struct {
	Addr   string
	Weight float64
}

// HealthResult contains the health check results and is used to notify the subscribers.
// It's read-only for subscribers.
type HealthResult struct {
	// `backends` is empty when `err` is not nil. It doesn't mean there are no backends.
	backends map[string]*BackendHealth
	err      error
}

// NewHealthResult is used for testing in other packages.
func NewHealthResult(backends map[string]*BackendHealth, err error) HealthResult {
	return HealthResult{
		backends: backends,
		err:      err,
	}
}

func (hr HealthResult) Backends() map[string]*BackendHealth {
	newMap := make(map[string]*BackendHealth, len(hr.backends))
	for addr, health := range hr.backends {
		newMap[addr] = health
	}
	return newMap
}

func (hr HealthResult) Error() error {
	return hr.err
}
