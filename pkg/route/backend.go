// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"context"
	"fmt"

	"github.com/rwproxy/rwproxy/pkg/worker"
	"go.uber.org/atomic"
)

// Role is the replication role reported by the monitor.
type Role int32

const (
	RoleUnknown Role = iota
	RoleMaster
	RoleSlave
	RoleRelay
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSlave:
		return "slave"
	case RoleRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// ConnectionType tells the bring-up whether the master is picked this round.
type ConnectionType int

const (
	// ConnTypeAll connects the master and tops up slaves.
	ConnTypeAll ConnectionType = iota
	// ConnTypeSlave tops up slaves only.
	ConnTypeSlave
)

// ServerStats holds the load metrics the monitor maintains for one server.
// The fields are written by other goroutines and read here without locking,
// so every scoring pass loads each field into a local exactly once.
type ServerStats struct {
	// NCurrent is the process-wide count of current connections.
	NCurrent atomic.Int64
	// NCurrentOps is the count of in-flight operations.
	NCurrentOps atomic.Int64
	// Rlag is the replication lag in seconds. -1 means unknown.
	Rlag atomic.Int64
	// ResponseTimeAverage is a decaying average in seconds.
	ResponseTimeAverage atomic.Float64
}

// ServerRef is the shared record of one configured server. It outlives any
// session; the monitor mutates the role and health flags, sessions mutate the
// connection counters through Connect.
type ServerRef struct {
	name   string
	addr   string
	weight float64

	role     atomic.Int32
	alive    atomic.Bool
	draining atomic.Bool

	// Connections counts the live connections opened by this proxy.
	Connections atomic.Int64
	Stats       ServerStats
}

func NewServerRef(name, addr string, weight float64) *ServerRef {
	srv := &ServerRef{
		name:   name,
		addr:   addr,
		weight: weight,
	}
	srv.Stats.Rlag.Store(-1)
	return srv
}

func (s *ServerRef) Name() string {
	return s.name
}

func (s *ServerRef) Addr() string {
	return s.addr
}

// Weight scales the selection scores. 0 excludes the server from
// non-adaptive selection.
func (s *ServerRef) Weight() float64 {
	return s.weight
}

func (s *ServerRef) Role() Role {
	return Role(s.role.Load())
}

func (s *ServerRef) SetRole(r Role) {
	s.role.Store(int32(r))
}

func (s *ServerRef) Alive() bool {
	return s.alive.Load()
}

func (s *ServerRef) SetAlive(alive bool) {
	s.alive.Store(alive)
}

func (s *ServerRef) Draining() bool {
	return s.draining.Load()
}

func (s *ServerRef) SetDraining(draining bool) {
	s.draining.Store(draining)
}

// CanConnect reports whether new connections may be opened to the server.
func (s *ServerRef) CanConnect() bool {
	return s.alive.Load() && !s.draining.Load()
}

func (s *ServerRef) StatusString() string {
	status := "down"
	if s.alive.Load() {
		status = "up"
	}
	if s.draining.Load() {
		status += ", draining"
	}
	return fmt.Sprintf("%s (%s)", s.Role().String(), status)
}

// SessionCommand is one statement that must be replayed on every backend
// attached to a session, such as SET or USE.
type SessionCommand struct {
	Query string
}

// SessionCommandList accumulates the session commands of one session.
type SessionCommandList struct {
	cmds []SessionCommand
}

func NewSessionCommandList() *SessionCommandList {
	return &SessionCommandList{}
}

func (l *SessionCommandList) Append(query string) {
	l.cmds = append(l.cmds, SessionCommand{Query: query})
}

func (l *SessionCommandList) Size() int {
	if l == nil {
		return 0
	}
	return len(l.cmds)
}

func (l *SessionCommandList) Queries() []string {
	if l == nil {
		return nil
	}
	queries := make([]string, 0, len(l.cmds))
	for _, cmd := range l.cmds {
		queries = append(queries, cmd.Query)
	}
	return queries
}

// Session is the per-client handle selection acts on behalf of. A session is
// bound to one worker for its lifetime.
type Session interface {
	ID() uint64
	Context() context.Context
	Worker() *worker.Worker
}

// Backend is one backend server as seen by a session. It is shared by
// reference between the session and the router's backend list.
type Backend interface {
	IsMaster() bool
	IsSlave() bool
	IsRelay() bool
	InUse() bool
	CanConnect() bool
	HasSessionCommands() bool
	Server() *ServerRef
	// Connect opens a connection for the session, replaying sescmds when
	// non-empty. The call is synchronous and returns the outcome at once.
	Connect(ses Session, sescmds *SessionCommandList) error
	Name() string
}

// Connector opens the actual connection to a backend address.
type Connector interface {
	Connect(ctx context.Context, addr string, sescmds []string) error
}

var _ Backend = (*RWBackend)(nil)

// RWBackend is the concrete Backend over a shared ServerRef.
type RWBackend struct {
	server    *ServerRef
	connector Connector

	inUse       atomic.Bool
	hasSessCmds atomic.Bool
}

func NewRWBackend(server *ServerRef, connector Connector) *RWBackend {
	return &RWBackend{
		server:    server,
		connector: connector,
	}
}

func (b *RWBackend) IsMaster() bool {
	return b.server.Role() == RoleMaster
}

func (b *RWBackend) IsSlave() bool {
	return b.server.Role() == RoleSlave
}

func (b *RWBackend) IsRelay() bool {
	return b.server.Role() == RoleRelay
}

func (b *RWBackend) InUse() bool {
	return b.inUse.Load()
}

func (b *RWBackend) CanConnect() bool {
	return b.server.CanConnect()
}

func (b *RWBackend) HasSessionCommands() bool {
	return b.hasSessCmds.Load()
}

func (b *RWBackend) Server() *ServerRef {
	return b.server
}

func (b *RWBackend) Name() string {
	return b.server.Name()
}

func (b *RWBackend) Connect(ses Session, sescmds *SessionCommandList) error {
	if err := b.connector.Connect(ses.Context(), b.server.Addr(), sescmds.Queries()); err != nil {
		return err
	}
	b.inUse.Store(true)
	b.server.Connections.Inc()
	b.server.Stats.NCurrent.Inc()
	if sescmds.Size() > 0 {
		b.hasSessCmds.Store(true)
	}
	return nil
}
