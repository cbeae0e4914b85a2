// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"runtime"
	"sync"

	"github.com/rwproxy/rwproxy/lib/config"
	"github.com/rwproxy/rwproxy/lib/util/cmd"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/lib/util/logger"
	"github.com/rwproxy/rwproxy/lib/util/waitgroup"
	"github.com/rwproxy/rwproxy/pkg/metrics"
	"github.com/rwproxy/rwproxy/pkg/observer"
	"github.com/rwproxy/rwproxy/pkg/proxy/backend"
	"github.com/rwproxy/rwproxy/pkg/route"
	"github.com/rwproxy/rwproxy/pkg/sctx"
	"github.com/rwproxy/rwproxy/pkg/server/api"
	"github.com/rwproxy/rwproxy/pkg/util/versioninfo"
	"github.com/rwproxy/rwproxy/pkg/worker"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var ErrBackendNotFound = errors.New("backend not found")

var registerMetricsOnce sync.Once

type Server struct {
	wg     waitgroup.WaitGroup
	lg     *zap.Logger
	syncer *logger.AtomicWriteSyncer
	cfg    *config.Config
	cancel context.CancelFunc

	Workers   *worker.Pool
	Observer  observer.BackendObserver
	Router    *route.Router
	Connector *backend.SQLConnector
	APIServer *api.Server

	// refs keeps the config order. The bring-up picks the root master by
	// list order, so the order must be stable.
	refs    []*route.ServerRef
	servers map[string]*route.ServerRef
}

func NewServer(ctx context.Context, sctx *sctx.Context) (srv *Server, err error) {
	cfg := sctx.Overlay
	if cfg == nil {
		if cfg, err = config.LoadFile(sctx.ConfigFile); err != nil {
			return nil, err
		}
	} else if err = cfg.Check(); err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:     cfg,
		servers: make(map[string]*route.ServerRef, len(cfg.Proxy.Backends)),
	}
	ready := atomic.NewBool(false)

	var lg *zap.Logger
	if lg, srv.syncer, _, err = cmd.BuildLogger(&cfg.Log); err != nil {
		return nil, err
	}
	srv.lg = lg
	printInfo(lg)

	registerMetricsOnce.Do(metrics.RegisterProxyMetrics)

	if srv.Workers, err = worker.NewPool(cfg.Proxy.Workers); err != nil {
		return nil, err
	}

	for _, b := range cfg.Proxy.Backends {
		ref := route.NewServerRef(b.Addr, b.Addr, b.Weight)
		srv.refs = append(srv.refs, ref)
		srv.servers[b.Addr] = ref
	}

	srv.Connector = backend.NewSQLConnector(lg.Named("connector"),
		cfg.HealthCheck.User, cfg.HealthCheck.Password, cfg.HealthCheck.DialTimeout)

	if srv.Router, err = route.NewRouter(lg.Named("router"), cfg.Routing); err != nil {
		return nil, err
	}

	childCtx, cancelFunc := context.WithCancel(ctx)
	srv.cancel = cancelFunc

	fetcher := observer.NewStaticFetcher(cfg.Proxy.Backends)
	hc := observer.NewDefaultHealthCheck(nil, &cfg.HealthCheck, lg.Named("hc"))
	bo := observer.NewDefaultBackendObserver(lg.Named("observer"), &cfg.HealthCheck, fetcher, hc)
	srv.Observer = bo
	healthCh := bo.Subscribe("server")
	bo.Start(childCtx)
	srv.wg.RunWithRecover(func() {
		srv.applyHealthLoop(childCtx, healthCh)
	}, nil, lg)

	mgr := api.Managers{Backends: srv, Cfg: srv}
	if srv.APIServer, err = api.NewServer(cfg.API, lg.Named("api"), mgr, sctx.Handler, ready); err != nil {
		return nil, err
	}

	ready.Toggle()
	return srv, nil
}

func printInfo(lg *zap.Logger) {
	fields := []zap.Field{
		zap.String("Release Version", versioninfo.Version),
		zap.String("GoVersion", runtime.Version()),
		zap.String("OS", runtime.GOOS),
		zap.String("Arch", runtime.GOARCH),
	}
	lg.Info("Welcome to RWProxy.", fields...)
}

func (s *Server) applyHealthLoop(ctx context.Context, ch <-chan observer.HealthResult) {
	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return
			}
			s.applyHealth(result)
		case <-ctx.Done():
			return
		}
	}
}

// applyHealth writes the monitor's findings into the shared server records
// the selection reads.
func (s *Server) applyHealth(result observer.HealthResult) {
	if result.Error() != nil {
		return
	}
	backends := result.Backends()
	for addr, ref := range s.servers {
		health, ok := backends[addr]
		if !ok || !health.Healthy {
			ref.SetAlive(false)
			continue
		}
		ref.SetAlive(true)
		ref.SetRole(health.Role)
		ref.Stats.Rlag.Store(health.Rlag)
	}
}

// NewSessionBackends creates the per-session backend list over the shared
// server records, in config order.
func (s *Server) NewSessionBackends() []route.Backend {
	backends := make([]route.Backend, 0, len(s.refs))
	for _, ref := range s.refs {
		backends = append(backends, route.NewRWBackend(ref, s.Connector))
	}
	return backends
}

func (s *Server) BackendStates() []api.BackendState {
	states := make([]api.BackendState, 0, len(s.refs))
	for _, ref := range s.refs {
		states = append(states, api.BackendState{
			Name:        ref.Name(),
			Addr:        ref.Addr(),
			Role:        ref.Role().String(),
			Healthy:     ref.Alive(),
			Draining:    ref.Draining(),
			Connections: ref.Connections.Load(),
			Rlag:        ref.Stats.Rlag.Load(),
			Weight:      ref.Weight(),
		})
	}
	return states
}

func (s *Server) SetDraining(addr string, draining bool) error {
	ref, ok := s.servers[addr]
	if !ok {
		return errors.Wrapf(ErrBackendNotFound, "%s", addr)
	}
	ref.SetDraining(draining)
	s.lg.Info("backend draining changed", zap.String("backend_addr", addr), zap.Bool("draining", draining))
	return nil
}

func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

func (s *Server) Close() error {
	if s.APIServer != nil {
		s.APIServer.PreClose()
	}
	if s.cancel != nil {
		s.cancel()
	}
	errs := make([]error, 0, 4)
	if s.Observer != nil {
		s.Observer.Close()
	}
	if s.APIServer != nil {
		if err := s.APIServer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Connector != nil {
		if err := s.Connector.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()
	if s.syncer != nil {
		if err := s.syncer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "shutdown with errors")
	}
	return nil
}
