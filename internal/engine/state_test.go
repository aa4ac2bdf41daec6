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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemStateStore_ValueCellClearMakesEmpty(t *testing.T) {
	store := NewMemStateStore()
	ns := windowNamespace(IntervalWindow{Start: 0, End: 10})

	v, err := store.Value(ns, "counter")
	assert.NoError(t, err)
	assert.True(t, v.IsEmpty())

	v.Write(42)
	got, ok := v.Read()
	assert.True(t, ok)
	assert.Equal(t, 42, got)
	assert.False(t, v.IsEmpty())

	v.Clear()
	assert.True(t, v.IsEmpty())
}

func TestMemStateStore_BagAccumulatesInOrder(t *testing.T) {
	store := NewMemStateStore()
	ns := windowNamespace(IntervalWindow{Start: 0, End: 10})

	bag, err := store.Bag(ns, "values")
	assert.NoError(t, err)
	bag.Add(1)
	bag.Add(2)
	bag.Add(3)

	assert.Equal(t, []any{1, 2, 3}, bag.Read())

	bag.Clear()
	assert.True(t, bag.IsEmpty())
}

func TestMemStateStore_SetDeduplicates(t *testing.T) {
	store := NewMemStateStore()
	ns := windowNamespace(IntervalWindow{Start: 0, End: 10})

	set, err := store.Set(ns, "seen")
	assert.NoError(t, err)
	set.Add("a")
	set.Add("a")
	set.Add("b")

	assert.True(t, set.Contains("a"))
	assert.True(t, set.Contains("b"))
	assert.Len(t, set.Read(), 2)
}

type sumCombine struct{}

func (sumCombine) CreateAccumulator() any          { return 0 }
func (sumCombine) AddInput(acc, in any) any        { return acc.(int) + in.(int) }
func (sumCombine) ExtractOutput(acc any) any        { return acc }
func (sumCombine) MergeAccumulators(accs []any) any {
	total := 0
	for _, a := range accs {
		if a == nil {
			continue
		}
		total += a.(int)
	}
	return total
}

func TestMemStateStore_CombiningSumsInputs(t *testing.T) {
	store := NewMemStateStore()
	ns := windowNamespace(IntervalWindow{Start: 0, End: 10})

	c, err := store.Combining(ns, "sum", sumCombine{})
	assert.NoError(t, err)
	c.Add(1)
	c.Add(2)
	c.Add(3)

	assert.Equal(t, 6, c.Read())
}

func TestMemStateStore_MergeCombiningAcrossNamespaces(t *testing.T) {
	store := NewMemStateStore()
	a := windowNamespace(IntervalWindow{Start: 0, End: 10})
	b := windowNamespace(IntervalWindow{Start: 10, End: 20})
	dest := windowNamespace(IntervalWindow{Start: 0, End: 20})

	combiningCell := func(ns StateNamespace) CombiningState {
		c, err := store.Combining(ns, "sum", sumCombine{})
		assert.NoError(t, err)
		return c
	}

	combiningCell(a).Add(2)
	combiningCell(b).Add(5)

	assert.NoError(t, mergeCombiningAcrossNamespaces(store, sumCombine{}, "sum", []StateNamespace{a, b}, dest))

	assert.Equal(t, 7, combiningCell(dest).Read())
	assert.True(t, combiningCell(a).IsEmpty())
	assert.True(t, combiningCell(b).IsEmpty())
}

func TestMemStateStore_ClearNamespaceDropsOnlyThatNamespace(t *testing.T) {
	store := NewMemStateStore()
	w1 := windowNamespace(IntervalWindow{Start: 0, End: 10})
	w2 := windowNamespace(IntervalWindow{Start: 10, End: 20})

	valueCell := func(ns StateNamespace) ValueState {
		v, err := store.Value(ns, "v")
		assert.NoError(t, err)
		return v
	}

	valueCell(w1).Write("one")
	valueCell(w2).Write("two")

	store.ClearNamespace(w1)

	assert.True(t, valueCell(w1).IsEmpty())
	got, ok := valueCell(w2).Read()
	assert.True(t, ok)
	assert.Equal(t, "two", got)
}

func TestMemStateStore_TypeMismatchReturnsError(t *testing.T) {
	store := NewMemStateStore()
	ns := windowNamespace(IntervalWindow{Start: 0, End: 10})

	cell, err := store.Value(ns, "cell")
	assert.NoError(t, err)
	cell.Write(1)

	_, err = store.Bag(ns, "cell")
	assert.ErrorIs(t, err, ErrStateTypeMismatch)
}
