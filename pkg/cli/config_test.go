// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ksck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeTempConfig(t, `
master_address: master.example.com:7051
checksum_timeout: 2m
retry_interval: 500ms
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "master.example.com:7051", cfg.MasterAddress)
		require.Equal(t, 2*time.Minute, time.Duration(cfg.ChecksumTimeout))
		require.Equal(t, 500*time.Millisecond, time.Duration(cfg.RetryInterval))
		require.Zero(t, cfg.DialTimeout)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		path := writeTempConfig(t, "master_adress: oops\n")
		_, err := loadConfig(path)
		require.ErrorContains(t, err, "could not parse config file")
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempConfig(t, "retry_interval: quickly\n")
		_, err := loadConfig(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "could not read config file")
	})
}
