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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, "info", conf.Log.Level)
	require.True(t, conf.Performance.EnableChunkPruning)
	require.Equal(t, 256, conf.Performance.StatsBuckets)
}

func TestConfigLoad(t *testing.T) {
	confFile := filepath.Join(t.TempDir(), "opal.toml")
	content := `
[log]
level = "debug"

[performance]
enable-chunk-pruning = false
stats-buckets = 64
`
	require.NoError(t, os.WriteFile(confFile, []byte(content), 0o644))

	conf := NewConfig()
	require.NoError(t, conf.Load(confFile))
	require.Equal(t, "debug", conf.Log.Level)
	require.False(t, conf.Performance.EnableChunkPruning)
	require.Equal(t, 64, conf.Performance.StatsBuckets)

	require.Error(t, conf.Load(filepath.Join(t.TempDir(), "missing.toml")))
}

func TestGlobalConfig(t *testing.T) {
	orig := GetGlobalConfig()
	defer StoreGlobalConfig(orig)

	conf := NewConfig()
	conf.Performance.EnableChunkPruning = false
	StoreGlobalConfig(conf)
	require.False(t, GetGlobalConfig().Performance.EnableChunkPruning)
}
