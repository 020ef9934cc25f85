// Copyright 2023 OpalDB, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"go.uber.org/atomic"

	"github.com/opaldb/opal/util/logutil"
)

// Config contains configuration options.
type Config struct {
	Log         Log         `toml:"log" json:"log"`
	Performance Performance `toml:"performance" json:"performance"`
}

// Log is the log section of config.
type Log struct {
	// Level is the log level, one of "debug", "info", "warn", "error", "fatal".
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	File   string `toml:"file" json:"file"`
}

// Performance is the performance section of the config.
type Performance struct {
	// EnableChunkPruning toggles the chunk-pruning rewrite during logical
	// optimization.
	EnableChunkPruning bool `toml:"enable-chunk-pruning" json:"enable-chunk-pruning"`
	// StatsBuckets is the number of histogram buckets built per column.
	StatsBuckets int `toml:"stats-buckets" json:"stats-buckets"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
	},
	Performance: Performance{
		EnableChunkPruning: true,
		StatsBuckets:       256,
	},
}

var globalConf atomic.Pointer[Config]

func init() {
	conf := defaultConf
	globalConf.Store(&conf)
}

// NewConfig creates a new config instance with default values.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// GetGlobalConfig returns the global configuration for this server. It should
// store configuration from command line and configuration file. Other
// parts of the system can read the global configuration use this function.
func GetGlobalConfig() *Config {
	return globalConf.Load()
}

// StoreGlobalConfig stores a new config to the globalConf.
func StoreGlobalConfig(conf *Config) {
	globalConf.Store(conf)
}

// Load loads config options from a toml file.
func (c *Config) Load(confFile string) error {
	_, err := toml.DecodeFile(confFile, c)
	return errors.Trace(err)
}

// LogConfig converts the log section into the logutil initialization config.
func (c *Config) LogConfig() *logutil.LogConfig {
	fileCfg := logutil.FileLogConfig{}
	fileCfg.Filename = c.Log.File
	fileCfg.MaxSize = logutil.DefaultLogMaxSize
	return logutil.NewLogConfig(c.Log.Level, c.Log.Format, fileCfg)
}
