// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"testing"

	"github.com/rwproxy/rwproxy/lib/util/logger"
	"github.com/stretchr/testify/require"
)

func TestFindBestBackendPriorities(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	ses := newMockSession(t)
	cn := newMockConnector()

	// One busy slave, two idle ones. The busy one is grouped away and the
	// idle one with fewer router connections wins.
	s1 := newTestBackend("s1", RoleSlave, 1, cn)
	s2 := newTestBackend("s2", RoleSlave, 1, cn)
	s3 := newTestBackend("s3", RoleSlave, 1, cn)
	s1.Server().Connections.Store(2)
	s2.Server().Connections.Store(1)
	markInUse(t, s3, ses, true)
	s3.Server().Connections.Store(0)

	selectFct := GetBackendSelectFunction(lg, LeastRouterConnections)
	idx := findBestBackend(ses, []Backend{s1, s2, s3}, selectFct, false)
	require.Equal(t, 1, idx)
}

func TestFindBestBackendMasterReads(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	ses := newMockSession(t)
	cn := newMockConnector()

	master := newTestBackend("master", RoleMaster, 1, cn)
	slave := newTestBackend("slave", RoleSlave, 1, cn)
	markInUse(t, slave, ses, true)

	selectFct := GetBackendSelectFunction(lg, LeastCurrentOperations)

	// With reads to the master enabled, the idle master beats a busy slave.
	idx := findBestBackend(ses, []Backend{master, slave}, selectFct, true)
	require.Equal(t, 0, idx)

	// Without it, the master still beats a busy slave but loses to any
	// idle one.
	idx = findBestBackend(ses, []Backend{master, slave}, selectFct, false)
	require.Equal(t, 0, idx)

	idleSlave := newTestBackend("idle-slave", RoleSlave, 1, cn)
	idx = findBestBackend(ses, []Backend{master, slave, idleSlave}, selectFct, false)
	require.Equal(t, 2, idx)
}

func TestFindBestBackendPreemption(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	ses := newMockSession(t)
	cn := newMockConnector()

	busy := newTestBackend("busy", RoleSlave, 1, cn)
	markInUse(t, busy, ses, true)
	idle := newTestBackend("idle", RoleSlave, 1, cn)
	idle.Server().Connections.Store(100)
	idle.Server().Stats.NCurrentOps.Store(100)

	// Any priority-1 backend wins regardless of its score.
	for _, criteria := range []SelectionCriteria{LeastGlobalConnections, LeastRouterConnections, LeastCurrentOperations} {
		selectFct := GetBackendSelectFunction(lg, criteria)
		idx := findBestBackend(ses, []Backend{busy, idle}, selectFct, false)
		require.Equal(t, 1, idx, criteria.String())
	}
}

func TestFindBestBackendRelay(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	ses := newMockSession(t)
	cn := newMockConnector()

	// A relay is not acts_slave for read priority, only for slave top-up.
	relay := newTestBackend("relay", RoleRelay, 1, cn)
	slave := newTestBackend("slave", RoleSlave, 1, cn)

	selectFct := GetBackendSelectFunction(lg, LeastCurrentOperations)
	idx := findBestBackend(ses, []Backend{relay, slave}, selectFct, false)
	require.Equal(t, 1, idx)
}

func TestFindBestBackendEmpty(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	ses := newMockSession(t)
	selectFct := GetBackendSelectFunction(lg, LeastCurrentOperations)
	require.Equal(t, -1, findBestBackend(ses, nil, selectFct, false))
}
