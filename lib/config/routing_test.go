// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoutingCheck(t *testing.T) {
	tests := []struct {
		routing Routing
		checker func(t *testing.T, r Routing, err error)
	}{
		{
			routing: Routing{},
			checker: func(t *testing.T, r Routing, err error) {
				require.NoError(t, err)
				require.Equal(t, CriteriaLeastCurrentOperations, r.SlaveSelectionCriteria)
				require.Equal(t, MasterFailInstantly, r.MasterFailureMode)
			},
		},
		{
			routing: Routing{SlaveSelectionCriteria: CriteriaAdaptiveRouting, MasterFailureMode: MasterFailOnWrite},
			checker: func(t *testing.T, r Routing, err error) {
				require.NoError(t, err)
				require.Equal(t, CriteriaAdaptiveRouting, r.SlaveSelectionCriteria)
			},
		},
		{
			routing: Routing{SlaveSelectionCriteria: "round-robin"},
			checker: func(t *testing.T, r Routing, err error) {
				require.ErrorIs(t, err, ErrInvalidConfigValue)
			},
		},
		{
			routing: Routing{MasterFailureMode: "panic"},
			checker: func(t *testing.T, r Routing, err error) {
				require.ErrorIs(t, err, ErrInvalidConfigValue)
			},
		},
		{
			routing: Routing{MaxSlaveConnections: -1},
			checker: func(t *testing.T, r Routing, err error) {
				require.ErrorIs(t, err, ErrInvalidConfigValue)
			},
		},
	}

	for i, tt := range tests {
		r := tt.routing
		err := r.Check()
		tt.checker(t, r, err)
		_ = i
	}
}

func TestDefaultRouting(t *testing.T) {
	r := DefaultRouting()
	require.NoError(t, r.Check())
	require.Equal(t, 255, r.MaxSlaveConnections)
}
