// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rwproxy/rwproxy/lib/config"
)

// ConfigReader exposes the effective config to the API.
type ConfigReader interface {
	GetConfig() *config.Config
}

func (h *Server) HandleGetConfig(c *gin.Context) {
	c.TOML(http.StatusOK, h.mgr.Cfg.GetConfig())
}

func (h *Server) registerConfig(group *gin.RouterGroup) {
	group.GET("/", h.HandleGetConfig)
}
