// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"github.com/rwproxy/rwproxy/lib/config"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrNoMaster       = errors.New("no suitable master")
	ErrMasterDraining = errors.New("master is being drained")
	ErrNoBackend      = errors.New("no available backend")
)

// Router performs backend selection for the sessions of one listener. The
// selection function is bound once from the configured criteria and stays
// stable afterwards.
type Router struct {
	logger    *zap.Logger
	cfg       config.Routing
	criteria  SelectionCriteria
	selectFct BackendSelectFunc
}

func NewRouter(logger *zap.Logger, cfg config.Routing) (*Router, error) {
	criteria, err := NewSelectionCriteria(cfg.SlaveSelectionCriteria)
	if err != nil {
		return nil, err
	}
	return &Router{
		logger:    logger,
		cfg:       cfg,
		criteria:  criteria,
		selectFct: GetBackendSelectFunction(logger, criteria),
	}, nil
}

// getRootMaster returns the first master in list order, or nil.
func getRootMaster(backends []Backend) Backend {
	for _, b := range backends {
		if b.IsMaster() {
			return b
		}
	}
	return nil
}

// validForSlave reports whether b may serve reads for a session whose master
// is master. A relay counts as a slave.
func validForSlave(b Backend, master Backend) bool {
	if !b.IsSlave() && !b.IsRelay() {
		return false
	}
	return master == nil || b != master
}

// getSlaveCounts counts the connectable valid slaves and how many of them the
// session already uses.
func getSlaveCounts(backends []Backend, master Backend) (slavesFound, slavesConnected int) {
	for _, b := range backends {
		if b.CanConnect() && validForSlave(b, master) {
			slavesFound++
			if b.InUse() {
				slavesConnected++
			}
		}
	}
	return
}

// SelectConnectBackendServers chooses and connects the backends of a session:
// the root master when connType is ConnTypeAll, then slaves up to the
// configured quota. sescmds, when non-empty, is replayed on every newly
// connected slave and expectedResponses counts those replays.
func (r *Router) SelectConnectBackendServers(ses Session, backends []Backend,
	sescmds *SessionCommandList, connType ConnectionType) (master Backend, expectedResponses int, err error) {
	rootMaster := getRootMaster(backends)
	if rootMaster == nil || !rootMaster.CanConnect() {
		if r.cfg.MasterFailureMode == config.MasterFailInstantly {
			addSelectionMetrics(r.criteria, false)
			if rootMaster == nil {
				r.logger.Error("couldn't find suitable master", zap.Int("candidates", len(backends)))
				return nil, 0, errors.Wrapf(ErrNoMaster, "couldn't find suitable master from %d candidates", len(backends))
			}
			r.logger.Error("master is being drained", zap.String("master", rootMaster.Name()))
			return nil, 0, errors.Wrapf(ErrMasterDraining, "master exists (%s), but it is being drained", rootMaster.Name())
		}
	}

	r.logServerConnections(backends)

	if connType == ConnTypeAll && rootMaster != nil && rootMaster.CanConnect() {
		for _, b := range backends {
			if b != rootMaster {
				continue
			}
			if cerr := b.Connect(ses, nil); cerr == nil {
				master = b
				setBackendConnMetrics(b.Server().Addr(), int(b.Server().Connections.Load()))
			} else {
				r.logger.Warn("failed to connect master",
					zap.String("master", b.Name()), zap.Error(cerr))
			}
			break
		}
	}

	slavesFound, slavesConnected := getSlaveCounts(backends, rootMaster)

	candidates := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if !b.InUse() && b.CanConnect() && validForSlave(b, rootMaster) {
			candidates = append(candidates, b)
		}
	}

	limit := r.cfg.MaxSlaveConnections
	for (limit == 0 || slavesConnected < limit) && len(candidates) > 0 {
		idx := r.selectFct(ses, candidates)
		if idx < 0 {
			break
		}
		chosen := candidates[idx]
		if cerr := chosen.Connect(ses, sescmds); cerr == nil {
			if sescmds.Size() > 0 {
				expectedResponses++
			}
			slavesConnected++
			addSlaveConnectMetrics(chosen.Server().Addr(), true)
			setBackendConnMetrics(chosen.Server().Addr(), int(chosen.Server().Connections.Load()))
		} else {
			r.logger.Warn("failed to connect slave",
				zap.String("slave", chosen.Name()), zap.Error(cerr))
			addSlaveConnectMetrics(chosen.Server().Addr(), false)
		}
		// Never retry the same backend within one call.
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}

	r.logger.Debug("session backends selected",
		zap.Int("slaves_found", slavesFound),
		zap.Int("slaves_connected", slavesConnected),
		zap.Int("expected_responses", expectedResponses))
	addSelectionMetrics(r.criteria, true)
	return master, expectedResponses, nil
}

// SelectReadBackend picks the backend that should serve the next read,
// preferring idle read-capable servers over busy ones.
func (r *Router) SelectReadBackend(ses Session, backends []Backend) (Backend, error) {
	idx := findBestBackend(ses, backends, r.selectFct, r.cfg.MasterAcceptsReads)
	if idx < 0 {
		return nil, errors.WithStack(ErrNoBackend)
	}
	return backends[idx], nil
}

// logServerConnections emits one line per backend with the metric the
// configured criteria looks at.
func (r *Router) logServerConnections(backends []Backend) {
	if !r.logger.Core().Enabled(zapcore.InfoLevel) {
		return
	}
	for _, b := range backends {
		srv := b.Server()
		fields := []zap.Field{
			zap.String("backend", b.Name()),
			zap.String("addr", srv.Addr()),
			zap.String("status", srv.StatusString()),
		}
		switch r.criteria {
		case LeastGlobalConnections:
			fields = append(fields, zap.Int64("current_connections", srv.Stats.NCurrent.Load()))
		case LeastRouterConnections:
			fields = append(fields, zap.Int64("router_connections", srv.Connections.Load()))
		case LeastBehindMaster:
			fields = append(fields, zap.Int64("replication_lag", srv.Stats.Rlag.Load()))
		case LeastCurrentOperations:
			fields = append(fields, zap.Int64("current_operations", srv.Stats.NCurrentOps.Load()))
		case AdaptiveRouting:
			fields = append(fields, zap.Float64("response_time_average", srv.Stats.ResponseTimeAverage.Load()))
		}
		r.logger.Info("server connections", fields...)
	}
}
