// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package observer

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/rwproxy/rwproxy/lib/config"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/pkg/route"
	"go.uber.org/zap"
)

// HealthCheck is used to check the health of one backend. One can pass a customized health check function to the observer.
type HealthCheck interface {
	Check(ctx context.Context, addr string, info *BackendInfo) *BackendHealth
}

const (
	versionQuery  = "SELECT VERSION()"
	readOnlyQuery = "SELECT @@global.read_only"
	slaveQuery    = "SHOW SLAVE STATUS"
	rlagColumn    = "Seconds_Behind_Master"
)

// MonitorConn is one monitor connection to a backend.
type MonitorConn interface {
	Execute(query string, args ...interface{}) (*mysql.Result, error)
	Close() error
}

// MonitorConnector opens monitor connections.
type MonitorConnector interface {
	Connect(ctx context.Context, addr string) (MonitorConn, error)
}

type sqlConnector struct {
	cfg *config.HealthCheck
}

func (sc *sqlConnector) Connect(ctx context.Context, addr string) (MonitorConn, error) {
	dialer := &net.Dialer{Timeout: sc.cfg.DialTimeout}
	conn, err := client.ConnectWithDialer(ctx, "tcp", addr, sc.cfg.User, sc.cfg.Password, "", dialer.DialContext)
	return conn, errors.WithStack(err)
}

var _ HealthCheck = (*DefaultHealthCheck)(nil)

type DefaultHealthCheck struct {
	cfg       *config.HealthCheck
	logger    *zap.Logger
	connector MonitorConnector
}

func NewDefaultHealthCheck(connector MonitorConnector, cfg *config.HealthCheck, logger *zap.Logger) *DefaultHealthCheck {
	if connector == nil {
		connector = &sqlConnector{cfg: cfg}
	}
	return &DefaultHealthCheck{
		connector: connector,
		cfg:       cfg,
		logger:    logger,
	}
}

func (dhc *DefaultHealthCheck) Check(ctx context.Context, addr string, info *BackendInfo) *BackendHealth {
	bh := &BackendHealth{
		BackendInfo: *info,
		Healthy:     true,
		Role:        route.RoleUnknown,
		Rlag:        -1,
	}
	if !dhc.cfg.Enable {
		return bh
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(dhc.cfg.RetryInterval), uint64(dhc.cfg.MaxRetries)), ctx)
	err := backoff.Retry(func() error {
		return dhc.checkOnce(ctx, addr, bh)
	}, b)
	if err != nil {
		bh.Healthy = false
		bh.Role = route.RoleUnknown
		bh.Rlag = -1
		bh.PingErr = errors.Wrapf(err, "connect sql port failed")
	}
	return bh
}

func (dhc *DefaultHealthCheck) checkOnce(ctx context.Context, addr string, bh *BackendHealth) error {
	startTime := time.Now()
	conn, err := dhc.connector.Connect(ctx, addr)
	setPingBackendMetrics(addr, startTime)
	if err != nil {
		return err
	}
	defer func() {
		if ignoredErr := conn.Close(); ignoredErr != nil {
			dhc.logger.Warn("close monitor connection failed", zap.String("backend_addr", addr), zap.Error(ignoredErr))
		}
	}()
	if err = dhc.queryVersion(conn, bh); err != nil {
		return err
	}
	if err = dhc.queryRole(conn, bh); err != nil {
		return err
	}
	return dhc.queryRlag(conn, bh)
}

func (dhc *DefaultHealthCheck) queryVersion(conn MonitorConn, bh *BackendHealth) error {
	res, err := conn.Execute(versionQuery)
	if err != nil {
		return err
	}
	version, err := res.GetString(0, 0)
	if err != nil {
		return err
	}
	bh.ServerVersion = version
	return nil
}

func (dhc *DefaultHealthCheck) queryRole(conn MonitorConn, bh *BackendHealth) error {
	res, err := conn.Execute(readOnlyQuery)
	if err != nil {
		return err
	}
	readOnly, err := res.GetInt(0, 0)
	if err != nil {
		return err
	}
	if readOnly == 0 {
		bh.Role = route.RoleMaster
	} else {
		bh.Role = route.RoleSlave
	}
	return nil
}

// queryRlag reads the replication lag of a replicating backend. A master has
// no replication rows and keeps rlag -1.
func (dhc *DefaultHealthCheck) queryRlag(conn MonitorConn, bh *BackendHealth) error {
	res, err := conn.Execute(slaveQuery)
	if err != nil {
		return err
	}
	if res.Resultset == nil || res.RowNumber() == 0 {
		return nil
	}
	// Seconds_Behind_Master is NULL while the SQL thread is stopped.
	val, err := res.GetValueByName(0, rlagColumn)
	if err != nil || val == nil {
		return err
	}
	rlag, err := res.GetIntByName(0, rlagColumn)
	if err != nil {
		return err
	}
	bh.Rlag = rlag
	return nil
}
