// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackendState is the JSON view of one backend server.
type BackendState struct {
	Name        string  `json:"name"`
	Addr        string  `json:"addr"`
	Role        string  `json:"role"`
	Healthy     bool    `json:"healthy"`
	Draining    bool    `json:"draining"`
	Connections int64   `json:"connections"`
	Rlag        int64   `json:"rlag"`
	Weight      float64 `json:"weight"`
}

// BackendManager exposes the backend pool to the API.
type BackendManager interface {
	BackendStates() []BackendState
	SetDraining(addr string, draining bool) error
}

type drainRequest struct {
	Addr     string `json:"addr"`
	Draining bool   `json:"draining"`
}

func (h *Server) ListBackends(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Backends.BackendStates())
}

func (h *Server) DrainBackend(c *gin.Context) {
	var req drainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, "invalid drain request")
		return
	}
	if err := h.mgr.Backends.SetDraining(req.Addr, req.Draining); err != nil {
		c.Errors = append(c.Errors, &gin.Error{Err: err, Type: gin.ErrorTypePrivate})
		c.JSON(http.StatusNotFound, "backend not found")
		return
	}
	c.JSON(http.StatusOK, "")
}

func (h *Server) registerBackend(group *gin.RouterGroup) {
	group.GET("/", h.ListBackends)
	group.POST("/drain", h.DrainBackend)
}
