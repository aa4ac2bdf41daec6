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
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flpablo/beam/internal/engine"
)

func newRootCmd() *cobra.Command {
	var (
		scenarioPath string
		optionsPath  string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "windowcore",
		Short: "Reference host that drives internal/engine against a YAML scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			data, err := os.ReadFile(scenarioPath)
			if err != nil {
				return fmt.Errorf("windowcore: reading scenario %q: %w", scenarioPath, err)
			}
			scenario, err := ParseScenario(data)
			if err != nil {
				return err
			}

			var opts engine.Options
			if optionsPath != "" {
				optData, err := os.ReadFile(optionsPath)
				if err != nil {
					return fmt.Errorf("windowcore: reading options %q: %w", optionsPath, err)
				}
				opts, err = engine.LoadOptions(optData)
				if err != nil {
					return err
				}
			}

			results, err := RunScenario(cmd.Context(), scenario, log, opts)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to a YAML scenario file (required)")
	cmd.Flags().StringVarP(&optionsPath, "options", "o", "", "path to a YAML engine.Options file (optional)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	if err := cmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}

	return cmd
}

func printResults(w io.Writer, results []KeyResult) {
	for _, r := range results {
		fmt.Fprintf(w, "key=%s panes=%d\n", r.Key, len(r.Outputs))
		for _, out := range r.Outputs {
			we := out.Element
			fmt.Fprintf(w, "  window=%s ts=%d pane.index=%d pane.isLast=%t value=%v\n",
				we.Window.Key(), we.Timestamp.Milliseconds(), we.Pane.Index, we.Pane.IsLast, we.Value)
		}
	}
}
