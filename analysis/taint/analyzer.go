// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package taint implements the interprocedural taint analysis: a
// forward may-taint dataflow over function bodies, composed across the
// call graph through per-function summaries keyed by which parameters
// carry taint. Recursive call groups are solved by bounded fixed-point
// iteration, so analysis always terminates.
package taint

import (
	"runtime"
	"time"

	"github.com/awslabs/pytaint/analysis/callgraph"
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/pyast"
	"github.com/awslabs/pytaint/internal/funcutil"
)

// Options tunes one analysis run beyond what the config file carries.
type Options struct {
	// Suppressed drops findings at matching positions. Nil suppresses
	// nothing.
	Suppressed Suppressed
}

// Stats summarizes the work done by one run.
type Stats struct {
	Modules   int
	Functions int
	Edges     int
	Findings  int
	Duration  time.Duration
}

// Result is the output of one analysis run.
type Result struct {
	Findings []Finding
	Graph    *callgraph.Graph
	Stats    Stats
}

// Analyze runs the full pipeline over the given modules: per-module call
// graph fragments in parallel, a merged cross-module graph, summary
// computation in callee-first order, and finding emission.
func Analyze(cfg *config.Config, logger *config.LogGroup, modules []*pyast.Module, opts Options) (*Result, error) {
	start := time.Now()
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	logger.Debugf("building call graph fragments for %d modules", len(modules))
	frags := funcutil.MapParallel(modules, callgraph.BuildFragment, numWorkers)
	graph := callgraph.Merge(frags)

	classifier := classify.NewClassifier(cfg)
	summarizer := NewSummarizer(graph, classifier, logger, cfg)

	// Walk components callee-first so most summaries are memoized before
	// their callers demand them.
	edges := 0
	for _, comp := range graph.SCCOrder() {
		for _, n := range comp {
			edges += len(n.Edges)
			summarizer.EffectFor(n.ID, 0)
		}
	}

	findings := EmitFindings(summarizer, cfg, opts.Suppressed)
	if err := summarizer.Err(); err != nil {
		return nil, err
	}
	stats := Stats{
		Modules:   len(modules),
		Functions: len(graph.Nodes) - len(modules),
		Edges:     edges,
		Findings:  len(findings),
		Duration:  time.Since(start),
	}
	logger.Infof("analyzed %d modules, %d functions: %d findings in %s",
		stats.Modules, stats.Functions, stats.Findings, stats.Duration)
	return &Result{Findings: findings, Graph: graph, Stats: stats}, nil
}
