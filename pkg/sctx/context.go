// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package sctx

import (
	"github.com/gin-gonic/gin"
	"github.com/rwproxy/rwproxy/lib/config"
)

// Context carries the startup inputs from the command line into the server.
type Context struct {
	// Overlay replaces the file-based config when set. Used by tests and
	// embedding callers.
	Overlay    *config.Config
	ConfigFile string
	Handler    ServerHandler
}

type ServerHandler interface {
	RegisterHTTP(c *gin.Engine) error
}
