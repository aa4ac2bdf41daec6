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
	"log/slog"

	"github.com/google/uuid"
)

// TimerDispatcher is whatever owns a key's timers and knows how to react
// when one fires: ReduceFnRunner for the group-also-by-window path, or
// StatefulRunner for the stateful-ParDo path.
type TimerDispatcher interface {
	OnTimer(t Timer) error
}

// windowExpirer is implemented by dispatchers (StatefulRunner) that need
// a post-drain onWindowExpiration callback per touched window.
type windowExpirer interface {
	TouchedWindows() []Window
	InvokeWindowExpiration(w Window) error
	HasWindowExpiration() bool
}

// BatchDriver is the per-key outer loop (§2 C7, §4.7): it advances
// watermarks to +∞ at end of input, drains all eligible timers to
// exhaustion, invokes onWindowExpiration once per touched window, and
// finalizes persistence.
type BatchDriver struct {
	timers     *TimerStore
	dispatcher TimerDispatcher
	store      StateStore
	log        *slog.Logger
	instanceID string
}

// NewBatchDriver constructs a driver for one key's invocation.
func NewBatchDriver(timers *TimerStore, dispatcher TimerDispatcher, store StateStore, log *slog.Logger) *BatchDriver {
	if log == nil {
		log = slog.Default()
	}
	return &BatchDriver{
		timers:     timers,
		dispatcher: dispatcher,
		store:      store,
		log:        log,
		instanceID: uuid.NewString(),
	}
}

// Start advances processing time and synchronized processing time to now,
// the only contractual intermediate transition before the final +∞ one
// (§9 Open Question (a)).
func (d *BatchDriver) Start(now Time) error {
	if err := d.timers.AdvanceProcessingTime(now); err != nil {
		return err
	}
	return d.timers.AdvanceSyncProcessingTime(now)
}

// Finish advances all three watermarks to +∞, drains every eligible timer
// to exhaustion (§4.7), and runs onWindowExpiration over every window the
// dispatcher touched, in that order.
func (d *BatchDriver) Finish() error {
	d.log.Debug("batch driver finishing", slog.String("instance", d.instanceID))
	if err := d.timers.AdvanceInputWatermark(MaxTimestamp); err != nil {
		return err
	}
	if err := d.timers.AdvanceProcessingTime(MaxTimestamp); err != nil {
		return err
	}
	if err := d.timers.AdvanceSyncProcessingTime(MaxTimestamp); err != nil {
		return err
	}
	if err := d.drainTimers(); err != nil {
		return err
	}
	return d.runWindowExpiration()
}

// drainTimers implements the §4.7 loop exactly: drain event timers, then
// processing timers, then sync-processing timers, repeating while any
// domain produced a dispatch, since dispatching a timer may itself
// schedule more timers in any domain.
func (d *BatchDriver) drainTimers() error {
	for {
		fired := false

		for {
			t, ok := d.timers.RemoveNextEventTimer()
			if !ok {
				break
			}
			if err := d.dispatcher.OnTimer(t); err != nil {
				return err
			}
			fired = true
		}
		for {
			t, ok := d.timers.RemoveNextProcessingTimer()
			if !ok {
				break
			}
			if err := d.dispatcher.OnTimer(t); err != nil {
				return err
			}
			fired = true
		}
		for {
			t, ok := d.timers.RemoveNextSyncProcessingTimer()
			if !ok {
				break
			}
			if err := d.dispatcher.OnTimer(t); err != nil {
				return err
			}
			fired = true
		}

		if !fired {
			return nil
		}
	}
}

func (d *BatchDriver) runWindowExpiration() error {
	we, ok := d.dispatcher.(windowExpirer)
	if !ok || !we.HasWindowExpiration() {
		return nil
	}
	for _, w := range we.TouchedWindows() {
		if err := we.InvokeWindowExpiration(w); err != nil {
			return err
		}
	}
	return nil
}

// Persist finalizes the key's state for handoff to the host. It is
// idempotent (P7): calling it twice with no intervening mutation returns
// equal snapshots, since Snapshot itself has no side effects.
func (d *BatchDriver) Persist() Snapshot {
	return d.store.Snapshot()
}
