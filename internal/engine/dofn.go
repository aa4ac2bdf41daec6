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

// UserFn is the user-defined per-element function a StatefulRunner drives.
// Implementations access state/timers through the StateStore/TimerStore
// passed to them in ProcessContext rather than by reflection — the engine
// never inspects a UserFn's method set at runtime; a Signature built once
// per concrete type (see Signature below) tells the runner which optional
// methods are present.
type UserFn interface {
	// ProcessElement handles one admitted, in-order (if ordering is
	// enabled) element for a (key, window).
	ProcessElement(pc *ProcessContext, el WindowedElement) error
}

// TimerCallback is implemented by a UserFn that wants user-defined timers
// dispatched to it (distinct from the engine's internal GC and
// sort-flush timers, which StatefulRunner handles itself).
type TimerCallback interface {
	OnTimer(pc *ProcessContext, id TimerId, w Window, timestamp, outputTimestamp Time, domain Domain) error
}

// WindowExpirationCallback is implemented by a UserFn that wants to run
// cleanup logic once, at maxTimestamp(window)-1ms, after all of a
// window's timers have drained.
type WindowExpirationCallback interface {
	OnWindowExpiration(pc *ProcessContext, w Window, timestamp Time) error
}

// TimeSortedInput is implemented by a UserFn that requires its elements
// delivered in ascending event-time order per window, at the cost of
// buffering until the window (plus allowed lateness) closes.
type TimeSortedInput interface {
	RequiresTimeSortedInput() bool
}

// Signature describes the optional capabilities of a concrete UserFn,
// built once by the host per user type rather than discovered by runtime
// reflection (§9 Design Notes).
type Signature struct {
	HasOnTimer            bool
	HasOnWindowExpiration bool
	RequiresSorting       bool
}

// BuildSignature inspects fn's static type exactly once (a single set of
// type assertions, not reflection) to produce its Signature.
func BuildSignature(fn UserFn) Signature {
	sig := Signature{}
	if _, ok := fn.(TimerCallback); ok {
		sig.HasOnTimer = true
	}
	if _, ok := fn.(WindowExpirationCallback); ok {
		sig.HasOnWindowExpiration = true
	}
	if ts, ok := fn.(TimeSortedInput); ok {
		sig.RequiresSorting = ts.RequiresTimeSortedInput()
	}
	return sig
}

// ProcessContext is the per-invocation handle a UserFn uses to read/write
// state, set/clear timers, and push outputs.
type ProcessContext struct {
	Key      []byte
	State    StateStore
	Timers   *TimerStore
	Receiver Receiver
	Window   Window
}

// SetTimer schedules a user timer in the current window's namespace,
// replacing any pending timer with the same (timerName, family, domain).
func (pc *ProcessContext) SetTimer(timerName, family string, domain Domain, at, hold Time) {
	pc.Timers.Set(Timer{
		Id: TimerId{
			Namespace: windowNamespace(pc.Window).key(),
			TimerName: timerName,
			Family:    family,
			Domain:    domain,
		},
		Timestamp:       at,
		OutputTimestamp: hold,
		Window:          pc.Window,
	})
}
