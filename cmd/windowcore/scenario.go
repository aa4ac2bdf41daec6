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

// Package main implements windowcore, a reference host for
// internal/engine. It is deliberately thin: it exists to exercise the
// engine's External Interfaces (§6) from outside internal/engine, not to
// be a production pipeline runner.
package main

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/flpablo/beam/internal/engine"
)

// Scenario is the YAML shape windowcore reads: one windowing strategy and
// element schedule per key, independent of every other key.
type Scenario struct {
	Keys []KeyScenario `yaml:"keys"`
}

// KeyScenario is one key's independent slice of the pipeline: its own
// windowing strategy, trigger, and element schedule. The host fans these
// out to one BatchDriver apiece (§5: "parallelism exists only across
// keys").
type KeyScenario struct {
	Key       string          `yaml:"key"`
	Windowing WindowingConfig `yaml:"windowing"`
	Elements  []ElementConfig `yaml:"elements"`
}

// WindowingConfig is the YAML-facing description of a WindowingStrategy.
type WindowingConfig struct {
	Kind                  string `yaml:"kind"` // fixed, sliding, session, global
	SizeMillis            int64  `yaml:"sizeMillis"`
	PeriodMillis          int64  `yaml:"periodMillis"`
	GapMillis             int64  `yaml:"gapMillis"`
	AllowedLatenessMillis int64  `yaml:"allowedLatenessMillis"`
	Trigger               string `yaml:"trigger"`         // "default", "always", or "count:N"
	Accumulating          bool   `yaml:"accumulating"`
}

// ElementConfig is one input element: an integer value at an event-time
// timestamp. windowcore groups Values unchanged into each window's pane.
type ElementConfig struct {
	Value           int   `yaml:"value"`
	TimestampMillis int64 `yaml:"timestampMillis"`
}

// ParseScenario parses a Scenario from YAML bytes.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("windowcore: parsing scenario: %w", err)
	}
	return s, nil
}

// Strategy builds the engine.WindowingStrategy this config describes.
func (c WindowingConfig) Strategy() (engine.WindowingStrategy, error) {
	var windowFn engine.WindowFn
	switch c.Kind {
	case "", "fixed":
		if c.SizeMillis <= 0 {
			return engine.WindowingStrategy{}, fmt.Errorf("windowcore: fixed windowing requires sizeMillis > 0")
		}
		windowFn = engine.FixedWindows{Size: c.SizeMillis}
	case "sliding":
		if c.SizeMillis <= 0 || c.PeriodMillis <= 0 {
			return engine.WindowingStrategy{}, fmt.Errorf("windowcore: sliding windowing requires sizeMillis and periodMillis > 0")
		}
		windowFn = engine.SlidingWindows{Size: c.SizeMillis, Period: c.PeriodMillis}
	case "session":
		if c.GapMillis <= 0 {
			return engine.WindowingStrategy{}, fmt.Errorf("windowcore: session windowing requires gapMillis > 0")
		}
		windowFn = engine.SessionWindows{Gap: c.GapMillis}
	case "global":
		windowFn = engine.GlobalWindows{}
	default:
		return engine.WindowingStrategy{}, fmt.Errorf("windowcore: unknown windowing kind %q", c.Kind)
	}

	trigger, err := c.triggerSpec()
	if err != nil {
		return engine.WindowingStrategy{}, err
	}

	mode := engine.Discarding
	if c.Accumulating {
		mode = engine.Accumulating
	}

	return engine.WindowingStrategy{
		WindowFn:         windowFn,
		Trigger:          trigger,
		AllowedLateness:  time.Duration(c.AllowedLatenessMillis) * time.Millisecond,
		AccumulationMode: mode,
	}, nil
}

func (c WindowingConfig) triggerSpec() (engine.TriggerSpec, error) {
	switch {
	case c.Trigger == "" || c.Trigger == "default":
		return engine.TriggerSpec{Kind: engine.KindDefault}, nil
	case c.Trigger == "always":
		return engine.TriggerSpec{Kind: engine.KindAlways}, nil
	default:
		var n int
		if _, err := fmt.Sscanf(c.Trigger, "count:%d", &n); err == nil && n > 0 {
			return engine.TriggerSpec{Kind: engine.KindElementCount, ElementCount: n}, nil
		}
		return engine.TriggerSpec{}, fmt.Errorf("windowcore: unrecognized trigger %q", c.Trigger)
	}
}
