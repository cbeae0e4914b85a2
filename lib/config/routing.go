// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import "github.com/rwproxy/rwproxy/lib/util/errors"

// Slave selection criteria.
const (
	CriteriaLeastGlobalConnections = "least-global-connections"
	CriteriaLeastRouterConnections = "least-router-connections"
	CriteriaLeastBehindMaster      = "least-behind-master"
	CriteriaLeastCurrentOperations = "least-current-operations"
	CriteriaAdaptiveRouting        = "adaptive-routing"
)

// Master failure modes.
const (
	MasterFailInstantly = "fail-instantly"
	MasterFailOnWrite   = "fail-on-write"
	MasterErrorOnWrite  = "error-on-write"
)

type Routing struct {
	// SlaveSelectionCriteria picks the policy that chooses among slave
	// candidates.
	SlaveSelectionCriteria string `yaml:"slave-selection-criteria,omitempty" toml:"slave-selection-criteria,omitempty" json:"slave-selection-criteria,omitempty"`
	// MaxSlaveConnections limits the slaves connected per session. 0 means
	// unlimited.
	MaxSlaveConnections int `yaml:"max-slave-connections,omitempty" toml:"max-slave-connections,omitempty" json:"max-slave-connections,omitempty"`
	// MasterAcceptsReads makes the master eligible as a read source.
	MasterAcceptsReads bool `yaml:"master-accepts-reads,omitempty" toml:"master-accepts-reads,omitempty" json:"master-accepts-reads,omitempty"`
	MasterFailureMode  string `yaml:"master-failure-mode,omitempty" toml:"master-failure-mode,omitempty" json:"master-failure-mode,omitempty"`
}

func (r *Routing) Check() error {
	switch r.SlaveSelectionCriteria {
	case CriteriaLeastGlobalConnections, CriteriaLeastRouterConnections,
		CriteriaLeastBehindMaster, CriteriaLeastCurrentOperations, CriteriaAdaptiveRouting:
	case "":
		r.SlaveSelectionCriteria = CriteriaLeastCurrentOperations
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "invalid routing.slave-selection-criteria")
	}

	switch r.MasterFailureMode {
	case MasterFailInstantly, MasterFailOnWrite, MasterErrorOnWrite:
	case "":
		r.MasterFailureMode = MasterFailInstantly
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "invalid routing.master-failure-mode")
	}

	if r.MaxSlaveConnections < 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "routing.max-slave-connections must not be negative")
	}
	return nil
}

func DefaultRouting() Routing {
	return Routing{
		SlaveSelectionCriteria: CriteriaLeastCurrentOperations,
		MaxSlaveConnections:    255,
		MasterFailureMode:      MasterFailInstantly,
	}
}
