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

package taint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/awslabs/pytaint/analysis/callgraph"
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/pyast"
	"github.com/awslabs/pytaint/internal/funcutil"
)

// ErrInvariant reports an internal inconsistency of the analysis, such as
// a summary demand for a node the call graph never produced. Results
// obtained after such a violation are not trustworthy.
var ErrInvariant = errors.New("taint analysis invariant violated")

// Summarizer computes function summaries over the call graph. Summaries
// are demanded lazily per parameter-taint bitset; nodes inside a
// recursive component are solved together by bounded fixed-point
// iteration.
type Summarizer struct {
	graph    *callgraph.Graph
	class    *classify.Classifier
	log      *config.LogGroup
	maxIters int

	summaries map[callgraph.NodeID]*Summary
	sccOf     map[callgraph.NodeID]int
	sccs      [][]*callgraph.Node
	recursive map[callgraph.NodeID]bool

	// frames tracks components currently under fixed-point iteration.
	frames []*sccFrame

	// err records the first invariant violation seen.
	err error
}

type demand struct {
	id   callgraph.NodeID
	bits ParamBits
}

type sccFrame struct {
	members map[callgraph.NodeID]bool
	pending []demand
}

// NewSummarizer prepares summaries for every node of the graph.
func NewSummarizer(g *callgraph.Graph, class *classify.Classifier, log *config.LogGroup, cfg *config.Config) *Summarizer {
	maxIters := cfg.MaxFixpointIters
	if maxIters <= 0 {
		maxIters = config.DefaultMaxFixpointIters
	}
	s := &Summarizer{
		graph:     g,
		class:     class,
		log:       log,
		maxIters:  maxIters,
		summaries: map[callgraph.NodeID]*Summary{},
		sccOf:     map[callgraph.NodeID]int{},
		recursive: map[callgraph.NodeID]bool{},
	}
	s.sccs = g.SCCOrder()
	for i, comp := range s.sccs {
		for _, n := range comp {
			s.sccOf[n.ID] = i
			s.summaries[n.ID] = newSummary(n)
			if len(comp) > 1 {
				s.recursive[n.ID] = true
			}
		}
		if len(comp) == 1 {
			n := comp[0]
			for _, e := range n.Edges {
				if e.Callee == n.ID {
					s.recursive[n.ID] = true
				}
			}
		}
	}
	return s
}

// EffectFor returns the effect of node id under the given parameter-taint
// assumption, computing and memoizing it on first demand.
func (s *Summarizer) EffectFor(id callgraph.NodeID, bits ParamBits) *Effect {
	sum := s.summaries[id]
	if sum == nil {
		if s.err == nil {
			s.err = fmt.Errorf("%w: no summary for node %s", ErrInvariant, id)
		}
		return nil
	}
	if e, ok := sum.Effects[bits]; ok {
		return e
	}
	if s.recursive[id] {
		s.iterate(id, bits)
		return sum.Effects[bits]
	}
	e := s.analyze(sum.Node, bits)
	sum.Effects[bits] = e
	return e
}

// effectForCall resolves a summary demand made from inside an analysis
// run. Demands into a component currently being iterated return the
// current approximation and are queued for the next sweep.
func (s *Summarizer) effectForCall(id callgraph.NodeID, bits ParamBits) *Effect {
	for _, f := range s.frames {
		if !f.members[id] {
			continue
		}
		f.pending = append(f.pending, demand{id, bits})
		if e, ok := s.summaries[id].Effects[bits]; ok {
			return e
		}
		return &Effect{}
	}
	return s.EffectFor(id, bits)
}

// iterate solves all demanded summaries of one recursive component. The
// iteration starts from empty effects and grows them monotonically, so it
// converges; maxIters caps the sweeps in case a classifier extension
// breaks monotonicity.
func (s *Summarizer) iterate(id callgraph.NodeID, bits ParamBits) {
	comp := s.sccs[s.sccOf[id]]
	frame := &sccFrame{members: map[callgraph.NodeID]bool{}}
	for _, n := range comp {
		frame.members[n.ID] = true
	}
	s.frames = append(s.frames, frame)
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()

	demanded := map[demand]bool{{id, bits}: true}
	converged := false
	for iter := 0; iter < s.maxIters && !converged; iter++ {
		converged = true
		frame.pending = frame.pending[:0]
		for _, d := range sortedDemands(demanded) {
			sum := s.summaries[d.id]
			old := sum.Effects[d.bits]
			eff := s.analyze(sum.Node, d.bits)
			if !equalEffect(old, eff) {
				converged = false
			}
			sum.Effects[d.bits] = eff
		}
		for _, d := range frame.pending {
			if !demanded[d] {
				demanded[d] = true
				converged = false
			}
		}
	}
	if !converged {
		// An under-approximate summary would silently drop flows, so every
		// demand left in flight is forced to the worst case: the return and
		// all parameters tainted, attenuated by one unknown hop. Sinks found
		// so far are kept.
		for _, d := range sortedDemands(demanded) {
			sum := s.summaries[d.id]
			eff := sum.Effects[d.bits]
			if eff == nil {
				eff = &Effect{}
			}
			forceConservative(sum.Node, eff)
			sum.Effects[d.bits] = eff
		}
		s.log.Warnf("summaries of %s did not stabilize within %d iterations; assuming worst-case effects", id, s.maxIters)
	}
}

// forceConservative overwrites eff with the worst-case effect of node:
// taint on any parameter reaches the return value and every parameter,
// with one unknown hop of attenuation.
func forceConservative(node *callgraph.Node, eff *Effect) {
	worst := Taint{
		Tainted:  true,
		Unknowns: 1,
		Chain: []Hop{{
			Site: pyast.Position{File: node.File, Line: node.Line},
			Note: "through " + node.Name + " (iteration budget exhausted)",
		}},
	}
	eff.Return = worst
	for i := range node.Params {
		eff.ParamsOut = eff.ParamsOut.Set(i)
		if eff.ParamTaint == nil {
			eff.ParamTaint = map[int]Taint{}
		}
		eff.ParamTaint[i] = worst
	}
}

// Err reports the first invariant violation recorded during summarization,
// or nil if the run was internally consistent.
func (s *Summarizer) Err() error {
	return s.err
}

func sortedDemands(m map[demand]bool) []demand {
	out := make([]demand, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].id != out[j].id {
			return out[i].id < out[j].id
		}
		return out[i].bits < out[j].bits
	})
	return out
}

// NodeIDs returns all node ids in deterministic order.
func (s *Summarizer) NodeIDs() []callgraph.NodeID {
	return funcutil.SortedKeys(s.summaries)
}
