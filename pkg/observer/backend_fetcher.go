// Copyright 2024 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package observer

import (
	"context"

	"github.com/rwproxy/rwproxy/lib/config"
)

var _ BackendFetcher = (*StaticFetcher)(nil)

// BackendFetcher is an interface to fetch the backend list.
type BackendFetcher interface {
	GetBackendList(ctx context.Context) (map[string]*BackendInfo, error)
}

// StaticFetcher serves the backend pool declared in the config file.
type StaticFetcher struct {
	backends map[string]*BackendInfo
}

func NewStaticFetcher(backends []config.BackendConfig) *StaticFetcher {
	return &StaticFetcher{
		backends: backendListToMap(backends),
	}
}

func (sf *StaticFetcher) GetBackendList(context.Context) (map[string]*BackendInfo, error) {
	return sf.backends, nil
}

func backendListToMap(backends []config.BackendConfig) map[string]*BackendInfo {
	infos := make(map[string]*BackendInfo, len(backends))
	for _, b := range backends {
		infos[b.Addr] = &BackendInfo{
			Addr:   b.Addr,
			Weight: b.Weight,
		}
	}
	return infos
}
