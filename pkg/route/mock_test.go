// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"context"
	"sync"
	"testing"

	"github.com/rwproxy/rwproxy/pkg/worker"
	"github.com/stretchr/testify/require"
)

type mockSession struct {
	id uint64
	wk *worker.Worker
}

func newMockSession(t *testing.T) *mockSession {
	pool, err := worker.NewPool(1)
	require.NoError(t, err)
	return &mockSession{
		id: 1,
		wk: pool.Next(),
	}
}

func (s *mockSession) ID() uint64 {
	return s.id
}

func (s *mockSession) Context() context.Context {
	return context.Background()
}

func (s *mockSession) Worker() *worker.Worker {
	return s.wk
}

type mockConnector struct {
	sync.Mutex
	failAddrs map[string]error
	attempts  []string
	replayed  map[string][]string
}

func newMockConnector() *mockConnector {
	return &mockConnector{
		failAddrs: make(map[string]error),
		replayed:  make(map[string][]string),
	}
}

func (c *mockConnector) failWith(addr string, err error) {
	c.Lock()
	c.failAddrs[addr] = err
	c.Unlock()
}

func (c *mockConnector) Connect(_ context.Context, addr string, sescmds []string) error {
	c.Lock()
	defer c.Unlock()
	c.attempts = append(c.attempts, addr)
	if err := c.failAddrs[addr]; err != nil {
		return err
	}
	if len(sescmds) > 0 {
		c.replayed[addr] = append(c.replayed[addr], sescmds...)
	}
	return nil
}

func (c *mockConnector) allAttempts() []string {
	c.Lock()
	defer c.Unlock()
	return append([]string{}, c.attempts...)
}

func (c *mockConnector) attemptCount(addr string) int {
	cnt := 0
	for _, a := range c.allAttempts() {
		if a == addr {
			cnt++
		}
	}
	return cnt
}

func newTestServer(name string, role Role, weight float64) *ServerRef {
	srv := NewServerRef(name, name+":3306", weight)
	srv.SetAlive(true)
	srv.SetRole(role)
	return srv
}

func newTestBackend(name string, role Role, weight float64, cn Connector) *RWBackend {
	return NewRWBackend(newTestServer(name, role, weight), cn)
}

// markInUse connects the backend once so that it is observed as in use,
// optionally with session commands pending.
func markInUse(t *testing.T, b *RWBackend, ses Session, withSessCmds bool) {
	var sescmds *SessionCommandList
	if withSessCmds {
		sescmds = NewSessionCommandList()
		sescmds.Append("SET autocommit=1")
	}
	require.NoError(t, b.Connect(ses, sescmds))
	require.True(t, b.InUse())
	require.Equal(t, withSessCmds, b.HasSessionCommands())
}
