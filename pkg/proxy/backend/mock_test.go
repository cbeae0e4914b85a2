// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql/driver"
	"sync"

	"github.com/rwproxy/rwproxy/lib/util/errors"
)

type mockDriverConn struct {
	sync.Mutex
	execed  []string
	execErr error
	closed  bool
}

func (mc *mockDriverConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare is not supported")
}

func (mc *mockDriverConn) Close() error {
	mc.Lock()
	defer mc.Unlock()
	mc.closed = true
	return nil
}

func (mc *mockDriverConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (mc *mockDriverConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	mc.Lock()
	defer mc.Unlock()
	if mc.execErr != nil {
		return nil, mc.execErr
	}
	mc.execed = append(mc.execed, query)
	return driver.RowsAffected(0), nil
}

func (mc *mockDriverConn) queries() []string {
	mc.Lock()
	defer mc.Unlock()
	queries := make([]string, len(mc.execed))
	copy(queries, mc.execed)
	return queries
}

var _ driver.Conn = (*mockDriverConn)(nil)
var _ driver.ExecerContext = (*mockDriverConn)(nil)

type mockDriverConnector struct {
	conn    *mockDriverConn
	connErr error
}

func (mct *mockDriverConnector) Connect(context.Context) (driver.Conn, error) {
	if mct.connErr != nil {
		return nil, mct.connErr
	}
	return mct.conn, nil
}

func (mct *mockDriverConnector) Driver() driver.Driver {
	return nil
}
