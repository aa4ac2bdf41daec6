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
	"log/slog"
	"sort"
	"time"
)

// StatefulRunner drives a user element function per (key, window),
// exposing its state/timer API, handling late-data drop, on-timer
// dispatch, window-expiration callback, and optional event-time sorting
// of inputs (§4.5).
type StatefulRunner struct {
	key      []byte
	strategy WindowingStrategy
	state    StateStore
	timers   *TimerStore
	receiver Receiver
	fn       UserFn
	sig      Signature
	counters *Counters
	log      *slog.Logger

	touched map[string]Window
}

// NewStatefulRunner constructs a runner for one key driving fn.
func NewStatefulRunner(key []byte, strategy WindowingStrategy, state StateStore, timers *TimerStore, receiver Receiver, fn UserFn, counters *Counters, log *slog.Logger) *StatefulRunner {
	if log == nil {
		log = slog.Default()
	}
	return &StatefulRunner{
		key:      key,
		strategy: strategy,
		state:    state,
		timers:   timers,
		receiver: receiver,
		fn:       fn,
		sig:      BuildSignature(fn),
		counters: counters,
		log:      log,
		touched:  map[string]Window{},
	}
}

// StartBundle is a no-op hook kept for symmetry with FinishBundle; the
// core has no internal timeouts or per-bundle setup to perform (§5).
func (r *StatefulRunner) StartBundle() {}

// FinishBundle is a no-op hook; persistence is driven by BatchDriver, not
// by the runner itself.
func (r *StatefulRunner) FinishBundle() {}

// ProcessElement admits el, assigning it to windows and applying the
// late-drop / GC-timer / sort-buffer policy of §4.5 per window.
func (r *StatefulRunner) ProcessElement(el Element) error {
	for _, w := range r.strategy.WindowFn.Assign(el.Timestamp) {
		if err := r.processForWindow(w, el); err != nil {
			return err
		}
	}
	return nil
}

func (r *StatefulRunner) processForWindow(w Window, el Element) error {
	expiry := r.strategy.Expiration(w)
	if r.timers.InputWatermark() > expiry {
		r.counters.incDropped()
		r.log.Debug("dropped late element", slog.String("window", w.Key()), slog.Int64("ts", el.Timestamp.Milliseconds()))
		return nil
	}

	r.touched[w.Key()] = w
	r.timers.Set(Timer{
		Id:              TimerId{Namespace: windowNamespace(w).key(), TimerName: gcTimerName, Family: "stateful", Domain: EventTime},
		Timestamp:       expiry.Add(time.Duration(GCDelayMillis) * time.Millisecond),
		OutputTimestamp: expiry,
		Window:          w,
	})

	if r.sig.RequiresSorting {
		buffer, err := r.state.Bag(windowNamespace(w), "__sort_buffer")
		if err != nil {
			return err
		}
		buffer.Add(el)
		r.timers.Set(Timer{
			Id:              TimerId{Namespace: windowNamespace(w).key(), TimerName: sortFlushTimerName, Family: "stateful", Domain: EventTime},
			Timestamp:       expiry,
			OutputTimestamp: expiry,
			Window:          w,
		})
		return nil
	}

	return r.deliver(w, el)
}

func (r *StatefulRunner) deliver(w Window, el Element) error {
	r.counters.incProcessed()
	pc := &ProcessContext{Key: r.key, State: r.state, Timers: r.timers, Receiver: r.receiver, Window: w}
	if err := r.fn.ProcessElement(pc, WindowedElement{Value: el.Value, Timestamp: el.Timestamp, Window: w}); err != nil {
		return fmt.Errorf("%w: %w", ErrUserCodeFailure, err)
	}
	return nil
}

// OnTimer dispatches a fired timer: the GC marker clears window state with
// no output, the sort-flush marker drains the buffered elements in
// ascending (timestamp, sequence) order, and anything else is the user
// function's own @onTimer.
func (r *StatefulRunner) OnTimer(t Timer) error {
	w := t.Window
	switch t.Id.TimerName {
	case gcTimerName:
		r.state.ClearNamespace(windowNamespace(w))
		return nil
	case sortFlushTimerName:
		return r.flushSorted(w)
	default:
		if cb, ok := r.fn.(TimerCallback); ok {
			pc := &ProcessContext{Key: r.key, State: r.state, Timers: r.timers, Receiver: r.receiver, Window: w}
			if err := cb.OnTimer(pc, t.Id, w, t.Timestamp, t.OutputTimestamp, t.Id.Domain); err != nil {
				return fmt.Errorf("%w: %w", ErrUserCodeFailure, err)
			}
		}
		return nil
	}
}

func (r *StatefulRunner) flushSorted(w Window) error {
	buffer, err := r.state.Bag(windowNamespace(w), "__sort_buffer")
	if err != nil {
		return err
	}
	raw := buffer.Read()
	elements := make([]Element, 0, len(raw))
	for _, v := range raw {
		elements = append(elements, v.(Element))
	}
	sort.SliceStable(elements, func(i, j int) bool {
		if elements[i].Timestamp != elements[j].Timestamp {
			return elements[i].Timestamp < elements[j].Timestamp
		}
		return elements[i].Seq < elements[j].Seq
	})
	buffer.Clear()
	for _, el := range elements {
		if err := r.deliver(w, el); err != nil {
			return err
		}
	}
	return nil
}

// TouchedWindows returns every window this runner has admitted at least
// one element into, for BatchDriver to drive onWindowExpiration over
// after all timers have drained.
func (r *StatefulRunner) TouchedWindows() []Window {
	out := make([]Window, 0, len(r.touched))
	for _, w := range r.touched {
		out = append(out, w)
	}
	return out
}

// InvokeWindowExpiration calls the user function's OnWindowExpiration, if
// it declared one, at maxTimestamp(window)-1ms.
func (r *StatefulRunner) InvokeWindowExpiration(w Window) error {
	cb, ok := r.fn.(WindowExpirationCallback)
	if !ok {
		return nil
	}
	pc := &ProcessContext{Key: r.key, State: r.state, Timers: r.timers, Receiver: r.receiver, Window: w}
	if err := cb.OnWindowExpiration(pc, w, w.MaxTimestamp()-1); err != nil {
		return fmt.Errorf("%w: %w", ErrUserCodeFailure, err)
	}
	return nil
}

// HasWindowExpiration reports whether the driven UserFn declared an
// OnWindowExpiration handler.
func (r *StatefulRunner) HasWindowExpiration() bool {
	return r.sig.HasOnWindowExpiration
}
