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

import "time"

// AccumulationMode controls whether successive panes re-emit prior
// contents (Accumulating) or only the delta since the last firing
// (Discarding).
type AccumulationMode int

const (
	Discarding AccumulationMode = iota
	Accumulating
)

// ClosingBehavior names whether a window fires once more when it is
// finally garbage collected. It is carried on WindowingStrategy only;
// neither runner reads it.
type ClosingBehavior int

const (
	EmitIfNonEmpty ClosingBehavior = iota
	EmitAlways
)

// OnTimeBehavior names whether the on-time (watermark-passes-
// maxTimestamp) firing is forced even if the pane would be empty. It is
// carried on WindowingStrategy only; neither runner reads it.
type OnTimeBehavior int

const (
	FireIfNonEmpty OnTimeBehavior = iota
	FireAlways
)

// TimestampCombiner determines the output timestamp assigned to a pane
// composed of elements with different timestamps.
type TimestampCombiner int

const (
	EndOfWindow TimestampCombiner = iota
	EarliestInPane
	LatestInPane
)

// WindowingStrategy is the complete description of how a WindowFn's
// output windows fire and retire (§3).
type WindowingStrategy struct {
	WindowFn          WindowFn
	Trigger           TriggerSpec
	AllowedLateness   time.Duration
	AccumulationMode  AccumulationMode
	ClosingBehavior   ClosingBehavior
	OnTimeBehavior    OnTimeBehavior
	TimestampCombiner TimestampCombiner
}

// Expiration returns the instant past which elements for w are dropped as
// late: maxTimestamp(w) + allowedLateness.
func (s WindowingStrategy) Expiration(w Window) Time {
	return w.MaxTimestamp().Add(s.AllowedLateness)
}
