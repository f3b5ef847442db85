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

// Package graphutil computes strongly connected components and
// condensation orderings over arbitrary node types. Callers supply their
// nodes and a successor function; the package maps them onto integer
// graphs internally.
package graphutil

import (
	"github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// StronglyConnected groups nodes into strongly connected components.
// Nodes returned by succs that are not in nodes are ignored.
func StronglyConnected[T comparable](nodes []T, succs func(T) []T) [][]T {
	index := make(map[T]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	g := graph.New(len(nodes))
	for i, n := range nodes {
		for _, m := range succs(n) {
			if j, ok := index[m]; ok {
				g.Add(i, j)
			}
		}
	}
	comps := graph.StrongComponents(g)
	out := make([][]T, len(comps))
	for i, comp := range comps {
		members := make([]T, len(comp))
		for j, v := range comp {
			members[j] = nodes[v]
		}
		out[i] = members
	}
	return out
}

// CondensedOrder returns the strongly connected components of the graph
// in dependency order: every component appears before any component that
// has an edge into it. With succs giving caller-to-callee edges, callees
// come first.
func CondensedOrder[T comparable](nodes []T, succs func(T) []T) [][]T {
	comps := StronglyConnected(nodes, succs)
	compOf := make(map[T]int, len(nodes))
	for i, comp := range comps {
		for _, n := range comp {
			compOf[n] = i
		}
	}
	dag := simple.NewDirectedGraph()
	for i := range comps {
		dag.AddNode(simple.Node(i))
	}
	for _, comp := range comps {
		for _, n := range comp {
			from := compOf[n]
			for _, m := range succs(n) {
				to, ok := compOf[m]
				if !ok || to == from {
					continue
				}
				dag.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}
	// The condensation of a directed graph is acyclic, so the sort
	// cannot fail.
	sorted, _ := topo.Sort(dag)
	out := make([][]T, 0, len(comps))
	for i := len(sorted) - 1; i >= 0; i-- {
		out = append(out, comps[sorted[i].ID()])
	}
	return out
}
