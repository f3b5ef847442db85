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
	"github.com/awslabs/pytaint/analysis/callgraph"
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/pyast"
)

// SinkReach records one dangerous call reached by tainted data during the
// analysis of a single function body under one parameter-taint
// assumption.
type SinkReach struct {
	Rule *classify.SinkRule
	Site pyast.Position
	// Source and Origin are set when the taint came from a concrete
	// source; they stay zero for taint that entered through a parameter,
	// and the caller substitutes its own source when it applies the
	// summary.
	Source classify.SourceKind
	Origin pyast.Position
	Chain  []Hop
	// Unknowns counts unresolved calls on the witness path.
	Unknowns int
}

// Effect is the observable behavior of one function body under a fixed
// parameter-taint assumption.
type Effect struct {
	// Return is the taint of the function's return value.
	Return Taint
	// Sinks are the dangerous calls reached under this assumption.
	Sinks []SinkReach
	// ParamsOut marks parameters whose referenced object the body taints
	// through mutation (a subscript or attribute store). Callers re-taint
	// the matching argument when they apply the summary.
	ParamsOut ParamBits
	// ParamTaint keeps one witness taint per parameter in ParamsOut.
	ParamTaint map[int]Taint
}

// taintParam records a mutation of parameter i with tainted data.
func (e *Effect) taintParam(i int, t Taint) {
	e.ParamsOut = e.ParamsOut.Set(i)
	if e.ParamTaint == nil {
		e.ParamTaint = map[int]Taint{}
	}
	if old, ok := e.ParamTaint[i]; !ok || (t.Unknowns < old.Unknowns) || (!old.Tainted && t.Tainted) {
		e.ParamTaint[i] = t
	}
}

// Summary memoizes the effects of one call graph node, keyed by which
// parameters were assumed tainted.
type Summary struct {
	Node    *callgraph.Node
	Effects map[ParamBits]*Effect
}

func newSummary(n *callgraph.Node) *Summary {
	return &Summary{Node: n, Effects: map[ParamBits]*Effect{}}
}

// equalEffect compares two effects for fixed-point convergence. Sink
// reaches are compared as (rule, site) sets; chains are witnesses only.
func equalEffect(a, b *Effect) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !equalTaint(a.Return, b.Return) || a.ParamsOut != b.ParamsOut || len(a.Sinks) != len(b.Sinks) {
		return false
	}
	type key struct {
		rule string
		file string
		line int
	}
	seen := map[key]int{}
	for _, s := range a.Sinks {
		seen[key{s.Rule.RuleID, s.Site.File, s.Site.Line}]++
	}
	for _, s := range b.Sinks {
		k := key{s.Rule.RuleID, s.Site.File, s.Site.Line}
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}

// addSink appends a reach, collapsing duplicates at the same site for the
// same rule.
func (e *Effect) addSink(r SinkReach) {
	for i := range e.Sinks {
		s := &e.Sinks[i]
		if s.Rule.RuleID == r.Rule.RuleID && s.Site.File == r.Site.File && s.Site.Line == r.Site.Line {
			if r.Unknowns < s.Unknowns {
				*s = r
			}
			return
		}
	}
	e.Sinks = append(e.Sinks, r)
}
