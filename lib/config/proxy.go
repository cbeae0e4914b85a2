// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rwproxy/rwproxy/lib/util/errors"
)

var (
	ErrInvalidConfigValue = errors.New("invalid config value")
)

type Config struct {
	Proxy       ProxyServer `yaml:"proxy,omitempty" toml:"proxy,omitempty" json:"proxy,omitempty"`
	API         API         `yaml:"api,omitempty" toml:"api,omitempty" json:"api,omitempty"`
	Routing     Routing     `yaml:"routing,omitempty" toml:"routing,omitempty" json:"routing,omitempty"`
	HealthCheck HealthCheck `yaml:"health-check,omitempty" toml:"health-check,omitempty" json:"health-check,omitempty"`
	Workdir     string      `yaml:"workdir,omitempty" toml:"workdir,omitempty" json:"workdir,omitempty"`
	Log         Log         `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

type ProxyServer struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
	// Workers is the number of workers that sessions are bound to.
	Workers int `yaml:"workers,omitempty" toml:"workers,omitempty" json:"workers,omitempty"`
	// Backends is the static pool of backend servers.
	Backends []BackendConfig `yaml:"backends,omitempty" toml:"backends,omitempty" json:"backends,omitempty"`
}

// BackendConfig declares one backend server of the pool.
type BackendConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
	// Weight scales the selection scores. 0 excludes the backend from
	// non-adaptive selection.
	Weight float64 `yaml:"weight,omitempty" toml:"weight,omitempty" json:"weight,omitempty"`
}

type API struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
}

type LogOnline struct {
	Level   string  `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	LogFile LogFile `yaml:"log-file,omitempty" toml:"log-file,omitempty" json:"log-file,omitempty"`
}

type Log struct {
	Encoder   string `yaml:"encoder,omitempty" toml:"encoder,omitempty" json:"encoder,omitempty"`
	LogOnline `yaml:",inline" toml:",inline" json:",inline"`
}

type LogFile struct {
	Filename   string `yaml:"filename,omitempty" toml:"filename,omitempty" json:"filename,omitempty"`
	MaxSize    int    `yaml:"max-size,omitempty" toml:"max-size,omitempty" json:"max-size,omitempty"`
	MaxDays    int    `yaml:"max-days,omitempty" toml:"max-days,omitempty" json:"max-days,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty" toml:"max-backups,omitempty" json:"max-backups,omitempty"`
}

func NewConfig() *Config {
	var cfg Config

	cfg.Proxy.Addr = "0.0.0.0:6000"
	cfg.Proxy.Workers = 4

	cfg.API.Addr = "0.0.0.0:3080"

	cfg.Routing = DefaultRouting()
	cfg.HealthCheck = DefaultHealthCheck()

	cfg.Log.Level = "info"
	cfg.Log.Encoder = "console"
	cfg.Log.LogFile.MaxSize = 300
	cfg.Log.LogFile.MaxDays = 3
	cfg.Log.LogFile.MaxBackups = 3

	return &cfg
}

func (cfg *Config) Clone() *Config {
	newCfg := *cfg
	newCfg.Proxy.Backends = make([]BackendConfig, len(cfg.Proxy.Backends))
	copy(newCfg.Proxy.Backends, cfg.Proxy.Backends)
	return &newCfg
}

func (cfg *Config) Check() error {
	if cfg.Workdir == "" {
		d, err := os.Getwd()
		if err != nil {
			return errors.WithStack(err)
		}
		cfg.Workdir = filepath.Clean(filepath.Join(d, "work"))
	}

	if cfg.Proxy.Workers <= 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "proxy.workers must be positive")
	}

	for _, b := range cfg.Proxy.Backends {
		if b.Addr == "" {
			return errors.Wrapf(ErrInvalidConfigValue, "backend addr must not be empty")
		}
		if b.Weight < 0 {
			return errors.Wrapf(ErrInvalidConfigValue, "backend weight must not be negative")
		}
	}

	if err := cfg.Routing.Check(); err != nil {
		return err
	}
	return cfg.HealthCheck.Check()
}

func (cfg *Config) ToBytes() ([]byte, error) {
	b := new(bytes.Buffer)
	err := toml.NewEncoder(b).Encode(cfg)
	return b.Bytes(), errors.WithStack(err)
}

// LoadFile reads and checks the config file, falling back to defaults for
// missing sections.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}
