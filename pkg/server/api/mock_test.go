// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"sync"

	"github.com/rwproxy/rwproxy/lib/config"
)

type mockBackendManager struct {
	sync.Mutex
	states   []BackendState
	drainErr error
	drained  map[string]bool
}

func newMockBackendManager() *mockBackendManager {
	return &mockBackendManager{
		drained: make(map[string]bool),
	}
}

func (m *mockBackendManager) BackendStates() []BackendState {
	m.Lock()
	defer m.Unlock()
	return m.states
}

func (m *mockBackendManager) SetDraining(addr string, draining bool) error {
	m.Lock()
	defer m.Unlock()
	if m.drainErr != nil {
		return m.drainErr
	}
	m.drained[addr] = draining
	return nil
}

func (m *mockBackendManager) drainingOf(addr string) bool {
	m.Lock()
	defer m.Unlock()
	return m.drained[addr]
}

type mockConfigReader struct {
	cfg *config.Config
}

func (m *mockConfigReader) GetConfig() *config.Config {
	return m.cfg
}
