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
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/pyast"
)

// Hop is one step of a provenance chain.
type Hop struct {
	Site pyast.Position
	Note string
}

// Taint is the abstract value of one expression or variable: whether it
// may carry attacker-controlled data, and where that data came from.
type Taint struct {
	Tainted bool
	// Source and Origin identify the entry point when the taint comes
	// from a concrete source; Origin.Line is 0 when the taint is only
	// relative to the enclosing function's parameters.
	Source classify.SourceKind
	Origin pyast.Position
	// Chain traces the flow from the source to this value.
	Chain []Hop
	// Unknowns counts hops through calls the analysis could not resolve.
	Unknowns int
}

func cleanValue() Taint { return Taint{} }

// union joins two may-taint values. The chain of the first tainted
// operand is kept; a finding needs one witness path, not all of them.
func union(a, b Taint) Taint {
	if !a.Tainted {
		if !b.Tainted {
			return Taint{}
		}
		return b
	}
	if b.Tainted && b.Unknowns < a.Unknowns {
		return b
	}
	return a
}

// env maps local variable names (and flattened attribute paths like
// "self.query") to their taint.
type env map[string]Taint

func (e env) clone() env {
	out := make(env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// join merges another environment into e, unioning values bound in both.
func (e env) join(other env) {
	for k, v := range other {
		e[k] = union(e[k], v)
	}
}

// equalTaint compares the parts of a taint value the fixed point
// iteration cares about. Chains are witnesses and do not affect
// convergence.
func equalTaint(a, b Taint) bool {
	return a.Tainted == b.Tainted && a.Unknowns == b.Unknowns
}
