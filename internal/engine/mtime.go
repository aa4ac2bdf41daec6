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

// Package engine implements the in-memory, per-key core described by the
// group-also-by-window and stateful-ParDo specification: window assignment,
// trigger-driven pane emission, a three-domain timer manager, and a
// namespaced state store, all running single-threaded per key.
package engine

import (
	"fmt"
	"time"
)

// Time is a millisecond-resolution event-time instant. It is a distinct
// type from time.Time so that the ±infinity sentinels used throughout
// watermark arithmetic never need to be special-cased against a zero
// time.Time value.
type Time int64

const (
	// MinTimestamp represents event time -infinity.
	MinTimestamp Time = Time(-(1 << 62))
	// MaxTimestamp represents event time +infinity.
	MaxTimestamp Time = Time(1<<62 - 1)
)

// FromMilliseconds converts a Unix millisecond timestamp to a Time.
func FromMilliseconds(ms int64) Time {
	return Time(ms)
}

// Milliseconds returns the Unix millisecond representation of t.
func (t Time) Milliseconds() int64 {
	return int64(t)
}

// ToTime converts t to a standard library time.Time, in UTC.
func (t Time) ToTime() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// Add returns t shifted by d, saturating at the infinity sentinels.
func (t Time) Add(d time.Duration) Time {
	if t == MaxTimestamp || t == MinTimestamp {
		return t
	}
	shifted := int64(t) + d.Milliseconds()
	if shifted >= int64(MaxTimestamp) {
		return MaxTimestamp
	}
	if shifted <= int64(MinTimestamp) {
		return MinTimestamp
	}
	return Time(shifted)
}

// Before reports whether t occurs strictly before u.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t occurs strictly after u.
func (t Time) After(u Time) bool { return t > u }

// Max returns the later of t and u.
func Max(t, u Time) Time {
	if t > u {
		return t
	}
	return u
}

// Min returns the earlier of t and u.
func Min(t, u Time) Time {
	if t < u {
		return t
	}
	return u
}

func (t Time) String() string {
	switch t {
	case MinTimestamp:
		return "-inf"
	case MaxTimestamp:
		return "+inf"
	default:
		return fmt.Sprintf("%dms", int64(t))
	}
}
