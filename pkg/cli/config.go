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
	"time"

	"github.com/cockroachdb/errors"
	yaml "gopkg.in/yaml.v2"
)

// duration is a time.Duration that unmarshals from YAML strings like "30s".
type duration time.Duration

func (d *duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	*d = duration(parsed)
	return nil
}

// config is the optional YAML configuration file. Command-line flags that
// were set explicitly take precedence over file values.
type config struct {
	MasterAddress     string   `yaml:"master_address"`
	DialTimeout       duration `yaml:"dial_timeout"`
	RPCTimeout        duration `yaml:"rpc_timeout"`
	ChecksumTimeout   duration `yaml:"checksum_timeout"`
	ConsistencyBudget duration `yaml:"consistency_budget"`
	RetryInterval     duration `yaml:"retry_interval"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config file %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "could not parse config file %s", path)
	}
	return cfg, nil
}
