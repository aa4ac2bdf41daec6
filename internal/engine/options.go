// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

// Options is the typed pipeline-options boundary of §6. No other option
// affects core semantics.
type Options struct {
	DisableMetrics          bool           `yaml:"disableMetrics"`
	AllowedLatenessOverride *time.Duration `yaml:"allowedLatenessOverride"`
	OrderingEnabled         bool           `yaml:"orderingEnabled"`
}

// LoadOptions parses Options from YAML, the configuration idiom this
// module's pack converges on for typed, file-backed settings.
func LoadOptions(data []byte) (Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("engine: parsing options: %w", err)
	}
	return o, nil
}

// EffectiveAllowedLateness returns strategyLateness unless Options
// overrides it.
func (o Options) EffectiveAllowedLateness(strategyLateness time.Duration) time.Duration {
	if o.AllowedLatenessOverride != nil {
		return *o.AllowedLatenessOverride
	}
	return strategyLateness
}
