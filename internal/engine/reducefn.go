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
)

// bufferedElement is what a ReduceFnRunner buffers per window, ahead of
// pane emission.
type bufferedElement struct {
	Value     any
	Timestamp Time
}

// ReduceFnRunner is the group-also-by-window core (§4.4): it consumes all
// elements for one key, drives window assignment and merging, feeds the
// trigger machine, and emits grouped panes.
type ReduceFnRunner struct {
	strategy WindowingStrategy
	state    StateStore
	timers   *TimerStore
	receiver Receiver
	key      []byte
	log      *slog.Logger

	active   map[string]Window
	triggers map[string]Trigger
}

// NewReduceFnRunner constructs a runner for one key, sharing the key's
// TimerStore and StateStore with the rest of that key's pipeline.
func NewReduceFnRunner(key []byte, strategy WindowingStrategy, state StateStore, timers *TimerStore, receiver Receiver, log *slog.Logger) *ReduceFnRunner {
	if log == nil {
		log = slog.Default()
	}
	return &ReduceFnRunner{
		strategy: strategy,
		state:    state,
		timers:   timers,
		receiver: receiver,
		key:      key,
		log:      log,
		active:   map[string]Window{},
		triggers: map[string]Trigger{},
	}
}

func (r *ReduceFnRunner) ctx() *triggerContext {
	return &triggerContext{state: r.state, timers: r.timers, inputWatermark: r.timers.InputWatermark}
}

func (r *ReduceFnRunner) triggerFor(w Window) (Trigger, error) {
	t, ok := r.triggers[w.Key()]
	if !ok {
		built, err := BuildTrigger(r.strategy.Trigger)
		if err != nil {
			return nil, err
		}
		t = built
		r.triggers[w.Key()] = t
	}
	return t, nil
}

// ProcessElements implements §4.4 steps 1-4 for a batch of elements
// belonging to this runner's key.
func (r *ReduceFnRunner) ProcessElements(elements []Element) error {
	ctx := r.ctx()
	touched := map[string]Window{}

	for _, el := range elements {
		for _, w := range r.strategy.WindowFn.Assign(el.Timestamp) {
			r.ensureWindow(w)
			ns := windowNamespace(w)
			bag, err := r.state.Bag(ns, "elements")
			if err != nil {
				return err
			}
			bag.Add(bufferedElement{Value: el.Value, Timestamp: el.Timestamp})
			we := WindowedElement{Value: el.Value, Timestamp: el.Timestamp, Window: w}
			trig, err := r.triggerFor(w)
			if err != nil {
				return err
			}
			trig.OnElement(ctx, w, we)
			touched[w.Key()] = w
		}
	}

	if r.strategy.WindowFn.IsMerging() {
		if err := r.mergeActive(); err != nil {
			return err
		}
		// After a merge pass, re-resolve which windows the just-touched
		// elements now live in so the firing check below looks at the
		// merged survivors, not the pre-merge singleton windows.
		touched = map[string]Window{}
		for k, w := range r.active {
			touched[k] = w
		}
	}

	for _, w := range touched {
		if err := r.maybeFire(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReduceFnRunner) ensureWindow(w Window) {
	if _, ok := r.active[w.Key()]; ok {
		return
	}
	r.active[w.Key()] = w
	r.scheduleEndOfWindow(w)
}

func (r *ReduceFnRunner) scheduleEndOfWindow(w Window) {
	expiry := r.strategy.Expiration(w)
	r.timers.Set(Timer{
		Id:              TimerId{Namespace: windowNamespace(w).key(), TimerName: "eow", Family: "gabw", Domain: EventTime},
		Timestamp:       expiry,
		OutputTimestamp: expiry,
		Window:          w,
	})
}

// mergeActive runs WindowFn.MergeWindows over the currently active window
// set and, for each proposed action, moves the buffered elements from the
// source windows into the target, reconciles trigger state, and
// reschedules the target's end-of-window timer. No other per-window cell
// of a source window is carried over to the target.
func (r *ReduceFnRunner) mergeActive() error {
	if !r.strategy.WindowFn.IsMerging() {
		return fmt.Errorf("%w: mergeActive called on non-mergeable WindowFn", ErrMergeConflict)
	}
	actives := make([]Window, 0, len(r.active))
	for _, w := range r.active {
		actives = append(actives, w)
	}
	actions := r.strategy.WindowFn.MergeWindows(actives)
	ctx := r.ctx()
	for _, action := range actions {
		destNS := windowNamespace(action.To)
		destBag, err := r.state.Bag(destNS, "elements")
		if err != nil {
			return err
		}
		var fromWindows []Window
		for _, from := range action.From {
			if from.Key() == action.To.Key() {
				continue
			}
			fromWindows = append(fromWindows, from)
			srcBag, err := r.state.Bag(windowNamespace(from), "elements")
			if err != nil {
				return err
			}
			for _, v := range srcBag.Read() {
				destBag.Add(v)
			}
			srcBag.Clear()
			r.timers.Delete(TimerId{Namespace: windowNamespace(from).key(), TimerName: "eow", Family: "gabw", Domain: EventTime})
			delete(r.active, from.Key())
			delete(r.triggers, from.Key())
		}
		r.ensureWindow(action.To)
		if len(fromWindows) > 0 {
			trig, err := r.triggerFor(action.To)
			if err != nil {
				return err
			}
			trig.OnMerge(ctx, fromWindows, action.To)
			r.scheduleEndOfWindow(action.To)
		}
	}
	return nil
}

// maybeFire emits a pane for w if its trigger says it's ready.
func (r *ReduceFnRunner) maybeFire(ctx *triggerContext, w Window) error {
	t, err := r.triggerFor(w)
	if err != nil {
		return err
	}
	if !t.ShouldFire(ctx, w) {
		return nil
	}
	if err := r.emitPane(w, t.IsClosed(ctx, w)); err != nil {
		return err
	}
	t.OnFire(ctx, w)
	return nil
}

// OnTimer handles this runner's own end-of-window timer: it gives the
// trigger one last look (covering AfterEndOfWindow-style late firings),
// emits a final pane if warranted, and then garbage collects the
// window's state.
func (r *ReduceFnRunner) OnTimer(t Timer) error {
	w, ok := r.active[t.Window.Key()]
	if !ok {
		return nil
	}
	ctx := r.ctx()
	trig, err := r.triggerFor(w)
	if err != nil {
		return err
	}
	trig.OnTimer(ctx, w, t)
	if trig.ShouldFire(ctx, w) {
		if err := r.emitPane(w, true); err != nil {
			return err
		}
		trig.OnFire(ctx, w)
	}
	r.state.ClearNamespace(windowNamespace(w))
	delete(r.active, w.Key())
	delete(r.triggers, w.Key())
	return nil
}

func (r *ReduceFnRunner) emitPane(w Window, isLast bool) error {
	ns := windowNamespace(w)
	bag, err := r.state.Bag(ns, "elements")
	if err != nil {
		return err
	}
	raw := bag.Read()

	values := make([]any, 0, len(raw))
	outTs := MinTimestamp
	first := true
	for _, v := range raw {
		be := v.(bufferedElement)
		values = append(values, be.Value)
		switch r.strategy.TimestampCombiner {
		case EarliestInPane:
			if first || be.Timestamp < outTs {
				outTs = be.Timestamp
			}
		case LatestInPane:
			if first || be.Timestamp > outTs {
				outTs = be.Timestamp
			}
		default:
			outTs = w.MaxTimestamp()
		}
		first = false
	}
	if len(raw) == 0 {
		outTs = w.MaxTimestamp()
	}

	idxState, err := r.state.Value(ns, "__pane_index")
	if err != nil {
		return err
	}
	idx := 0
	if v, ok := idxState.Read(); ok {
		idx = v.(int)
	}
	idxState.Write(idx + 1)

	r.log.Debug("pane emitted", slog.String("window", w.Key()), slog.Int("index", idx), slog.Int("count", len(values)))

	r.receiver.Process("", WindowedElement{
		Value:     values,
		Timestamp: outTs,
		Window:    w,
		Pane:      PaneInfo{Index: idx, NonSpeculative: r.timers.InputWatermark() > w.MaxTimestamp(), IsLast: isLast},
	})

	if r.strategy.AccumulationMode == Discarding {
		bag.Clear()
	}
	return nil
}
