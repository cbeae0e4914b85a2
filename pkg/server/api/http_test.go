// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/rwproxy/rwproxy/lib/config"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/lib/util/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type apiTestSuite struct {
	t       *testing.T
	srv     *Server
	mgr     *mockBackendManager
	baseURL string
}

func newAPITestSuite(t *testing.T) *apiTestSuite {
	lg, _ := logger.CreateLoggerForTest(t)
	mgr := newMockBackendManager()
	cfg := config.NewConfig()
	cfg.API.Addr = "127.0.0.1:0"
	srv, err := NewServer(cfg.API, lg, Managers{Backends: mgr, Cfg: &mockConfigReader{cfg: cfg}}, nil, atomic.NewBool(true))
	require.NoError(t, err)
	ts := &apiTestSuite{
		t:       t,
		srv:     srv,
		mgr:     mgr,
		baseURL: fmt.Sprintf("http://%s", srv.Addr()),
	}
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
	})
	return ts
}

func (ts *apiTestSuite) get(path string) (int, []byte) {
	resp, err := http.Get(ts.baseURL + path)
	require.NoError(ts.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	require.NoError(ts.t, resp.Body.Close())
	return resp.StatusCode, body
}

func (ts *apiTestSuite) post(path string, body interface{}) int {
	data, err := json.Marshal(body)
	require.NoError(ts.t, err)
	resp, err := http.Post(ts.baseURL+path, "application/json", bytes.NewReader(data))
	require.NoError(ts.t, err)
	require.NoError(ts.t, resp.Body.Close())
	return resp.StatusCode
}

func TestListBackends(t *testing.T) {
	ts := newAPITestSuite(t)
	ts.mgr.states = []BackendState{
		{Name: "b1", Addr: "1.1.1.1:3306", Role: "master", Healthy: true, Weight: 1},
		{Name: "b2", Addr: "1.1.1.2:3306", Role: "slave", Healthy: true, Rlag: 2, Weight: 1},
	}

	code, body := ts.get("/api/backends/")
	require.Equal(t, http.StatusOK, code)
	var states []BackendState
	require.NoError(t, json.Unmarshal(body, &states))
	require.Equal(t, ts.mgr.states, states)
}

func TestDrainBackend(t *testing.T) {
	ts := newAPITestSuite(t)

	code := ts.post("/api/backends/drain", drainRequest{Addr: "1.1.1.1:3306", Draining: true})
	require.Equal(t, http.StatusOK, code)
	require.True(t, ts.mgr.drainingOf("1.1.1.1:3306"))

	code = ts.post("/api/backends/drain", drainRequest{Addr: "1.1.1.1:3306", Draining: false})
	require.Equal(t, http.StatusOK, code)
	require.False(t, ts.mgr.drainingOf("1.1.1.1:3306"))

	ts.mgr.drainErr = errors.New("mock error")
	code = ts.post("/api/backends/drain", drainRequest{Addr: "unknown:3306", Draining: true})
	require.Equal(t, http.StatusNotFound, code)
}

func TestGetConfig(t *testing.T) {
	ts := newAPITestSuite(t)
	code, body := ts.get("/api/config/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), "[proxy]")
	require.Contains(t, string(body), "[routing]")
}

func TestDebugHealth(t *testing.T) {
	ts := newAPITestSuite(t)
	code, _ := ts.get("/debug/health")
	require.Equal(t, http.StatusOK, code)

	ts.srv.PreClose()
	code, _ = ts.get("/debug/health")
	require.Equal(t, http.StatusBadGateway, code)
}

func TestMetricsHandler(t *testing.T) {
	ts := newAPITestSuite(t)
	code, body := ts.get("/metrics/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), "go_")
}

func TestNotReady(t *testing.T) {
	lg, _ := logger.CreateLoggerForTest(t)
	cfg := config.NewConfig()
	cfg.API.Addr = "127.0.0.1:0"
	srv, err := NewServer(cfg.API, lg, Managers{Backends: newMockBackendManager(), Cfg: &mockConfigReader{cfg: cfg}}, nil, atomic.NewBool(false))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
	})

	resp, err := http.Get(fmt.Sprintf("http://%s/debug/health", srv.Addr()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
