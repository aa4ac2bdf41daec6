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
)

func TestFixedWindows_AssignsSingleAlignedWindow(t *testing.T) {
	f := FixedWindows{Size: 10}

	cases := []struct {
		ts   Time
		want IntervalWindow
	}{
		{0, IntervalWindow{Start: 0, End: 10}},
		{9, IntervalWindow{Start: 0, End: 10}},
		{10, IntervalWindow{Start: 10, End: 20}},
		{-1, IntervalWindow{Start: -10, End: 0}},
	}
	for _, c := range cases {
		got := f.Assign(c.ts)
		if len(got) != 1 {
			t.Fatalf("ts=%d: expected exactly 1 window, got %d", c.ts, len(got))
		}
		if got[0].(IntervalWindow) != c.want {
			t.Fatalf("ts=%d: expected %v, got %v", c.ts, c.want, got[0])
		}
	}
}

func TestFixedWindows_NeverMerges(t *testing.T) {
	f := FixedWindows{Size: 10}
	if f.IsMerging() {
		t.Fatal("fixed windows must not report as mergeable")
	}
	if actions := f.MergeWindows([]Window{IntervalWindow{Start: 0, End: 10}}); actions != nil {
		t.Fatalf("expected no merge actions, got %+v", actions)
	}
}

func TestSlidingWindows_AssignsEveryOverlappingWindow(t *testing.T) {
	s := SlidingWindows{Size: 10, Period: 5}
	got := s.Assign(Time(12))

	var keys []string
	for _, w := range got {
		keys = append(keys, w.Key())
	}
	sort.Strings(keys)

	want := []string{
		IntervalWindow{Start: 5, End: 15}.Key(),
		IntervalWindow{Start: 10, End: 20}.Key(),
	}
	sort.Strings(want)

	if len(keys) != len(want) {
		t.Fatalf("expected %d overlapping windows, got %d: %v", len(want), len(keys), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected overlapping windows %v, got %v", want, keys)
		}
	}
}

func TestSessionWindows_MergesOverlappingSpans(t *testing.T) {
	s := SessionWindows{Gap: 10}

	w1 := s.Assign(Time(0))[0]
	w2 := s.Assign(Time(5))[0]
	w3 := s.Assign(Time(100))[0]

	actions := s.MergeWindows([]Window{w1, w2, w3})
	if len(actions) != 1 {
		t.Fatalf("expected exactly one merge action (w3 stays isolated), got %d: %+v", len(actions), actions)
	}
	action := actions[0]
	if len(action.From) != 2 {
		t.Fatalf("expected the merge to cover the two overlapping sessions, got %+v", action.From)
	}
	merged := action.To.(IntervalWindow)
	if merged.Start != 0 || merged.End != 15 {
		t.Fatalf("expected merged span [0,15), got %v", merged)
	}
}

func TestSessionWindows_NoOverlapProducesNoMerge(t *testing.T) {
	s := SessionWindows{Gap: 10}
	w1 := s.Assign(Time(0))[0]
	w2 := s.Assign(Time(50))[0]

	if actions := s.MergeWindows([]Window{w1, w2}); actions != nil {
		t.Fatalf("expected no merge for disjoint sessions, got %+v", actions)
	}
}

func TestGlobalWindows_AssignsTheSingleton(t *testing.T) {
	g := GlobalWindows{}
	got := g.Assign(Time(12345))
	if len(got) != 1 || got[0] != GlobalWindow {
		t.Fatalf("expected the global window singleton, got %+v", got)
	}
}

func TestIntervalWindow_MaxTimestampIsLastIncludedInstant(t *testing.T) {
	w := IntervalWindow{Start: 0, End: 10}
	if w.MaxTimestamp() != 9 {
		t.Fatalf("expected maxTimestamp 9 for [0,10), got %v", w.MaxTimestamp())
	}
}
