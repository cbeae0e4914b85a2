// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package observer

import (
	"context"
	"sync"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/rwproxy/rwproxy/pkg/route"
)

type mockBackendFetcher struct {
	sync.Mutex
	backends map[string]*BackendInfo
	err      error
}

func newMockBackendFetcher() *mockBackendFetcher {
	return &mockBackendFetcher{
		backends: make(map[string]*BackendInfo),
	}
}

func (mbf *mockBackendFetcher) GetBackendList(context.Context) (map[string]*BackendInfo, error) {
	mbf.Lock()
	defer mbf.Unlock()
	if mbf.err != nil {
		return nil, mbf.err
	}
	backends := make(map[string]*BackendInfo, len(mbf.backends))
	for addr, backend := range mbf.backends {
		backends[addr] = backend
	}
	return backends, nil
}

func (mbf *mockBackendFetcher) setBackend(addr string, info *BackendInfo) {
	mbf.Lock()
	defer mbf.Unlock()
	mbf.backends[addr] = info
}

func (mbf *mockBackendFetcher) removeBackend(addr string) {
	mbf.Lock()
	defer mbf.Unlock()
	delete(mbf.backends, addr)
}

type mockHealthCheck struct {
	sync.Mutex
	backends map[string]*BackendHealth
}

func newMockHealthCheck() *mockHealthCheck {
	return &mockHealthCheck{
		backends: make(map[string]*BackendHealth),
	}
}

func (mhc *mockHealthCheck) Check(_ context.Context, addr string, _ *BackendInfo) *BackendHealth {
	mhc.Lock()
	defer mhc.Unlock()
	return mhc.backends[addr]
}

func (mhc *mockHealthCheck) setBackend(addr string, health *BackendHealth) {
	mhc.Lock()
	defer mhc.Unlock()
	mhc.backends[addr] = health
}

func (mhc *mockHealthCheck) removeBackend(addr string) {
	mhc.Lock()
	defer mhc.Unlock()
	delete(mhc.backends, addr)
}

type mockMonitorConn struct {
	results map[string]*mysql.Result
	errs    map[string]error
	closed  bool
}

func (mc *mockMonitorConn) Execute(query string, _ ...interface{}) (*mysql.Result, error) {
	if err := mc.errs[query]; err != nil {
		return nil, err
	}
	return mc.results[query], nil
}

func (mc *mockMonitorConn) Close() error {
	mc.closed = true
	return nil
}

type mockMonitorConnector struct {
	sync.Mutex
	conns    map[string]*mockMonitorConn
	connErr  error
	attempts int
}

func newMockMonitorConnector() *mockMonitorConnector {
	return &mockMonitorConnector{
		conns: make(map[string]*mockMonitorConn),
	}
}

func (mct *mockMonitorConnector) Connect(_ context.Context, addr string) (MonitorConn, error) {
	mct.Lock()
	defer mct.Unlock()
	mct.attempts++
	if mct.connErr != nil {
		return nil, mct.connErr
	}
	return mct.conns[addr], nil
}

func (mct *mockMonitorConnector) attemptCount() int {
	mct.Lock()
	defer mct.Unlock()
	return mct.attempts
}

func textResult(names []string, values [][]interface{}) *mysql.Result {
	rs, err := mysql.BuildSimpleTextResultset(names, values)
	if err != nil {
		panic(err)
	}
	for i, f := range rs.Fields {
		rs.FieldNames[string(f.Name)] = i
	}
	rs.Values = make([][]mysql.FieldValue, len(rs.RowDatas))
	for i, rd := range rs.RowDatas {
		fv, err := rd.Parse(rs.Fields, false, nil)
		if err != nil {
			panic(err)
		}
		rs.Values[i] = fv
	}
	return &mysql.Result{Resultset: rs}
}

// setMockServer wires the conn of one backend as a master or a slave with the
// given replication lag.
func (mct *mockMonitorConnector) setMockServer(addr string, role route.Role, rlag int64) *mockMonitorConn {
	conn := &mockMonitorConn{
		results: make(map[string]*mysql.Result),
		errs:    make(map[string]error),
	}
	conn.results[versionQuery] = textResult([]string{"VERSION()"}, [][]interface{}{{"8.0.35"}})
	readOnly := int64(1)
	if role == route.RoleMaster {
		readOnly = 0
	}
	conn.results[readOnlyQuery] = textResult([]string{"@@global.read_only"}, [][]interface{}{{readOnly}})
	if role == route.RoleMaster {
		conn.results[slaveQuery] = textResult([]string{rlagColumn}, [][]interface{}{})
	} else {
		conn.results[slaveQuery] = textResult([]string{rlagColumn}, [][]interface{}{{rlag}})
	}
	mct.Lock()
	defer mct.Unlock()
	mct.conns[addr] = conn
	return conn
}
