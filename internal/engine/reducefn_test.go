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
	"sort"
	"testing"
	"time"
)

func fixedWindowStrategy() WindowingStrategy {
	return WindowingStrategy{
		WindowFn:        FixedWindows{Size: 10},
		Trigger:         TriggerSpec{Kind: KindDefault},
		AllowedLateness: time.Millisecond,
	}
}

// S6 — GABW emits one pane per window at close.
func TestReduceFnRunner_OnePanePerWindowAtClose(t *testing.T) {
	timers := NewTimerStore()
	state := NewMemStateStore()
	recv := &SliceReceiver{}
	strategy := fixedWindowStrategy()
	runner := NewReduceFnRunner([]byte("hello"), strategy, state, timers, recv, nil)
	driver := NewBatchDriver(timers, runner, state, nil)

	if err := runner.ProcessElements([]Element{
		{Value: 1, Timestamp: 1},
		{Value: 2, Timestamp: 5},
		{Value: 3, Timestamp: 11},
	}); err != nil {
		t.Fatal(err)
	}

	if err := driver.Finish(); err != nil {
		t.Fatal(err)
	}

	if len(recv.Outputs) != 2 {
		t.Fatalf("expected exactly 2 panes, got %d: %+v", len(recv.Outputs), recv.Outputs)
	}

	byWindow := map[string][]any{}
	for _, o := range recv.Outputs {
		byWindow[o.Element.Window.Key()] = o.Element.Value.([]any)
	}
	w1 := IntervalWindow{Start: 0, End: 10}.Key()
	w2 := IntervalWindow{Start: 10, End: 20}.Key()

	v1 := byWindow[w1]
	sort.Slice(v1, func(i, j int) bool { return v1[i].(int) < v1[j].(int) })
	if len(v1) != 2 || v1[0].(int) != 1 || v1[1].(int) != 2 {
		t.Fatalf("expected window [0,10) = [1,2], got %+v", v1)
	}
	v2 := byWindow[w2]
	if len(v2) != 1 || v2[0].(int) != 3 {
		t.Fatalf("expected window [10,20) = [3], got %+v", v2)
	}
}

// P6 — accumulation correctness under discarding mode: the multiset-sum of
// pane contents equals the assigned element set.
func TestReduceFnRunner_DiscardingSumsAcrossPanes(t *testing.T) {
	timers := NewTimerStore()
	state := NewMemStateStore()
	recv := &SliceReceiver{}
	strategy := fixedWindowStrategy()
	strategy.Trigger = TriggerSpec{Kind: KindElementCount, ElementCount: 1}
	strategy.AccumulationMode = Discarding
	runner := NewReduceFnRunner([]byte("k"), strategy, state, timers, recv, nil)
	driver := NewBatchDriver(timers, runner, state, nil)

	if err := runner.ProcessElements([]Element{
		{Value: 1, Timestamp: 1},
		{Value: 2, Timestamp: 2},
	}); err != nil {
		t.Fatal(err)
	}
	if err := driver.Finish(); err != nil {
		t.Fatal(err)
	}

	total := 0
	for _, o := range recv.Outputs {
		for _, v := range o.Element.Value.([]any) {
			total += v.(int)
		}
	}
	if total != 3 {
		t.Fatalf("expected discarding panes to sum to 3 across all firings, got %d", total)
	}
}

// Session windows merge overlapping per-element windows into one.
func TestReduceFnRunner_SessionWindowsMerge(t *testing.T) {
	timers := NewTimerStore()
	state := NewMemStateStore()
	recv := &SliceReceiver{}
	strategy := WindowingStrategy{
		WindowFn:        SessionWindows{Gap: 10},
		Trigger:         TriggerSpec{Kind: KindDefault},
		AllowedLateness: time.Millisecond,
	}
	runner := NewReduceFnRunner([]byte("k"), strategy, state, timers, recv, nil)
	driver := NewBatchDriver(timers, runner, state, nil)

	if err := runner.ProcessElements([]Element{
		{Value: 1, Timestamp: 0},
		{Value: 2, Timestamp: 5},
	}); err != nil {
		t.Fatal(err)
	}
	if err := driver.Finish(); err != nil {
		t.Fatal(err)
	}

	if len(recv.Outputs) != 1 {
		t.Fatalf("expected the two overlapping sessions to merge into one pane, got %d: %+v", len(recv.Outputs), recv.Outputs)
	}
	vals := recv.Outputs[0].Element.Value.([]any)
	if len(vals) != 2 {
		t.Fatalf("expected merged session to contain both elements, got %+v", vals)
	}
}
