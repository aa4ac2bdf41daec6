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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flpablo/beam/internal/engine"
)

// keyMaxParallelism bounds the number of keys windowcore drives
// concurrently, mirroring execute.go's eg.SetLimit(8) bounded fan-out over
// stages, applied here to keys instead (§5: parallelism only across keys).
const keyMaxParallelism = 8

// KeyResult is one key's outcome: every pane it emitted, in emission
// order.
type KeyResult struct {
	Key     string
	Outputs []engine.TaggedElement
}

// RunScenario drives one ReduceFnRunner + BatchDriver per key in s,
// fanning the keys out across keyMaxParallelism goroutines, and returns
// each key's result once every key has finished (or the first error, via
// errgroup's context cancellation).
func RunScenario(ctx context.Context, s Scenario, log *slog.Logger, opts engine.Options) ([]KeyResult, error) {
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(keyMaxParallelism)

	var mu sync.Mutex
	results := make([]KeyResult, len(s.Keys))

	for i, ks := range s.Keys {
		i, ks := i, ks
		eg.Go(func() error {
			select {
			case <-egctx.Done():
				return context.Cause(egctx)
			default:
			}

			result, err := runKey(ks, log, opts)
			if err != nil {
				return fmt.Errorf("windowcore: key %q: %w", ks.Key, err)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runKey(ks KeyScenario, log *slog.Logger, opts engine.Options) (KeyResult, error) {
	strategy, err := ks.Windowing.Strategy()
	if err != nil {
		return KeyResult{}, err
	}
	strategy.AllowedLateness = opts.EffectiveAllowedLateness(strategy.AllowedLateness)

	instanceID := uuid.NewString()
	log.Debug("starting key invocation", slog.String("key", ks.Key), slog.String("instance", instanceID))

	timers := engine.NewTimerStore()
	var backend engine.StateBackend = engine.MemStateBackend{}
	state := backend.ForKey([]byte(ks.Key))
	recv := &engine.SliceReceiver{}

	runner := engine.NewReduceFnRunner([]byte(ks.Key), strategy, state, timers, recv, log)
	driver := engine.NewBatchDriver(timers, runner, state, log)

	elements := make([]engine.Element, 0, len(ks.Elements))
	for seq, ec := range ks.Elements {
		elements = append(elements, engine.Element{
			Value:     ec.Value,
			Timestamp: engine.Time(ec.TimestampMillis),
			Seq:       int64(seq),
		})
	}
	sort.SliceStable(elements, func(i, j int) bool { return elements[i].Seq < elements[j].Seq })

	if err := runner.ProcessElements(elements); err != nil {
		return KeyResult{}, fmt.Errorf("processing elements: %w", err)
	}
	if err := driver.Finish(); err != nil {
		return KeyResult{}, fmt.Errorf("finishing: %w", err)
	}

	return KeyResult{Key: ks.Key, Outputs: recv.Outputs}, nil
}
