// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/pkg/route"
	"go.uber.org/zap"
)

var _ route.Connector = (*SQLConnector)(nil)

type connectorFactory func(addr string) (driver.Connector, error)

// SQLConnector brings up backend session connections and replays the session
// command history on them. The connections stay open until the connector is
// closed.
type SQLConnector struct {
	sync.Mutex
	logger  *zap.Logger
	factory connectorFactory
	conns   []*sql.Conn
	dbs     []*sql.DB
}

func NewSQLConnector(logger *zap.Logger, user, password string, dialTimeout time.Duration) *SQLConnector {
	return &SQLConnector{
		logger: logger,
		factory: func(addr string) (driver.Connector, error) {
			cfg := mysql.NewConfig()
			cfg.Net = "tcp"
			cfg.Addr = addr
			cfg.User = user
			cfg.Passwd = password
			cfg.Timeout = dialTimeout
			return mysql.NewConnector(cfg)
		},
	}
}

func (sc *SQLConnector) Connect(ctx context.Context, addr string, sescmds []string) error {
	connector, err := sc.factory(addr)
	if err != nil {
		return errors.WithStack(err)
	}
	db := sql.OpenDB(connector)
	conn, err := db.Conn(ctx)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			sc.logger.Warn("close backend pool failed", zap.String("backend_addr", addr), zap.Error(closeErr))
		}
		return errors.Wrapf(err, "connect backend %s failed", addr)
	}
	for _, query := range sescmds {
		if _, err = conn.ExecContext(ctx, query); err != nil {
			_ = conn.Close()
			_ = db.Close()
			return errors.Wrapf(err, "replay session command on %s failed", addr)
		}
	}
	sc.Lock()
	sc.conns = append(sc.conns, conn)
	sc.dbs = append(sc.dbs, db)
	sc.Unlock()
	return nil
}

// Close releases all session connections brought up by this connector.
func (sc *SQLConnector) Close() error {
	sc.Lock()
	defer sc.Unlock()
	var lastErr error
	for _, conn := range sc.conns {
		if err := conn.Close(); err != nil {
			lastErr = err
		}
	}
	for _, db := range sc.dbs {
		if err := db.Close(); err != nil {
			lastErr = err
		}
	}
	sc.conns = nil
	sc.dbs = nil
	return errors.WithStack(lastErr)
}
