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

import "sync/atomic"

// Counter is an atomic named counter, the only shared mutable surface the
// core touches (§5 "Shared-resource policy").
type Counter interface {
	Inc(n int64)
	Value() int64
}

type atomicCounter struct {
	v int64
}

func (c *atomicCounter) Inc(n int64)   { atomic.AddInt64(&c.v, n) }
func (c *atomicCounter) Value() int64  { return atomic.LoadInt64(&c.v) }

// Counters is the metric sink a host supplies. The core always publishes
// DroppedDueToLateness and ProcessedElements.
type Counters struct {
	DroppedDueToLateness Counter
	ProcessedElements    Counter

	disabled bool
}

// NewCounters returns a fresh set of atomic counters. If disableMetrics is
// true, the runner's own increments are skipped (Options.DisableMetrics,
// §6); a direct Counter.Inc call still counts.
func NewCounters(disableMetrics bool) *Counters {
	return &Counters{
		DroppedDueToLateness: &atomicCounter{},
		ProcessedElements:    &atomicCounter{},
		disabled:             disableMetrics,
	}
}

func (c *Counters) incDropped() {
	if !c.disabled {
		c.DroppedDueToLateness.Inc(1)
	}
}

func (c *Counters) incProcessed() {
	if !c.disabled {
		c.ProcessedElements.Inc(1)
	}
}
