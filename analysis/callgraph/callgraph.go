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

// Package callgraph builds a static call graph over decoded Python
// modules. Each module yields a fragment holding one node per function
// plus a synthetic node for module-level code; merging fragments resolves
// calls across module boundaries through import tables.
//
// Resolution is name-based. Calls through values whose type the analysis
// cannot see (a method on an arbitrary object, a call on a call result)
// resolve to Unknown and are treated conservatively downstream.
package callgraph

import (
	"sort"
	"strings"

	"github.com/awslabs/pytaint/analysis/pyast"
	"github.com/awslabs/pytaint/analysis/scope"
	"github.com/awslabs/pytaint/internal/graphutil"
)

// NodeID is the qualified identity of a call graph node, e.g.
// "pkg.app.handler" or "pkg.models.User.save".
type NodeID string

// Unknown is the target of calls the analysis cannot resolve.
const Unknown NodeID = "<unknown>"

// ModuleFn names the synthetic node holding a module's top-level code.
const ModuleFn = "<module>"

// Edge records one resolved call site.
type Edge struct {
	Callee NodeID
	Site   pyast.Position
}

// Node is one analyzable body: a function, a method, or a module's
// top-level statements.
type Node struct {
	ID     NodeID
	Module string
	// Class is the enclosing class name for methods, empty otherwise.
	Class  string
	Name   string
	Params []string
	Body   []pyast.Stmt
	File   string
	Line   int
	// Edges are calls out of this body with a resolved or Unknown target.
	Edges []Edge
	// Callers is filled during Merge; lookup only.
	Callers []NodeID

	parent *Node
	// Functions defined lexically inside this body.
	locals map[string]NodeID
}

// IsMethod reports whether the node is a class method.
func (n *Node) IsMethod() bool { return n.Class != "" }

// Fragment is the per-module portion of the call graph, built without any
// knowledge of other modules.
type Fragment struct {
	Module string
	File   string
	Table  *scope.ModuleTable
	Nodes  []*Node
}

// BuildFragment collects the nodes of one module. Call edges stay
// unresolved until Merge.
func BuildFragment(m *pyast.Module) *Fragment {
	f := &Fragment{
		Module: m.Name,
		File:   m.Path,
		Table:  scope.BuildTable(m),
	}
	root := &Node{
		ID:     NodeID(m.Name + "." + ModuleFn),
		Module: m.Name,
		Name:   ModuleFn,
		Body:   m.Body,
		File:   m.Path,
		Line:   1,
		locals: map[string]NodeID{},
	}
	f.Nodes = append(f.Nodes, root)
	f.collect(m.Body, []string{}, "", root)
	return f
}

// collect walks a statement list registering function and class bodies,
// descending into compound statements so defs under if or try are found.
func (f *Fragment) collect(body []pyast.Stmt, prefix []string, class string, owner *Node) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *pyast.FunctionDef:
			path := append(append([]string{}, prefix...), s.Name)
			n := &Node{
				ID:     NodeID(f.Module + "." + strings.Join(path, ".")),
				Module: f.Module,
				Class:  class,
				Name:   s.Name,
				Body:   s.Body,
				File:   f.File,
				Line:   s.At.Line,
				parent: owner,
				locals: map[string]NodeID{},
			}
			for _, p := range s.Params {
				n.Params = append(n.Params, p.Name)
			}
			owner.locals[s.Name] = n.ID
			f.Nodes = append(f.Nodes, n)
			f.collect(s.Body, path, "", n)
		case *pyast.ClassDef:
			f.collect(s.Body, append(append([]string{}, prefix...), s.Name), s.Name, owner)
		case *pyast.If:
			f.collect(s.Body, prefix, class, owner)
			f.collect(s.Orelse, prefix, class, owner)
		case *pyast.While:
			f.collect(s.Body, prefix, class, owner)
			f.collect(s.Orelse, prefix, class, owner)
		case *pyast.For:
			f.collect(s.Body, prefix, class, owner)
			f.collect(s.Orelse, prefix, class, owner)
		case *pyast.With:
			f.collect(s.Body, prefix, class, owner)
		case *pyast.Try:
			f.collect(s.Body, prefix, class, owner)
			for _, h := range s.Handlers {
				f.collect(h.Body, prefix, class, owner)
			}
			f.collect(s.Orelse, prefix, class, owner)
			f.collect(s.Final, prefix, class, owner)
		case *pyast.Match:
			for _, c := range s.Cases {
				f.collect(c.Body, prefix, class, owner)
			}
		}
	}
}

// Graph is the merged, cross-module call graph.
type Graph struct {
	Nodes    map[NodeID]*Node
	resolver *scope.Resolver
}

// Merge stitches module fragments into one graph, resolving call sites
// across import boundaries and filling caller back references.
func Merge(frags []*Fragment) *Graph {
	tables := make([]*scope.ModuleTable, 0, len(frags))
	g := &Graph{Nodes: map[NodeID]*Node{}}
	for _, f := range frags {
		tables = append(tables, f.Table)
		for _, n := range f.Nodes {
			g.Nodes[n.ID] = n
		}
	}
	g.resolver = scope.NewResolver(tables)
	for _, n := range g.nodesSorted() {
		g.resolveEdges(n)
	}
	for _, n := range g.nodesSorted() {
		for _, e := range n.Edges {
			if callee, ok := g.Nodes[e.Callee]; ok {
				callee.Callers = append(callee.Callers, n.ID)
			}
		}
	}
	return g
}

// Resolve maps a flattened call name seen inside node n to a graph node.
// Lookup order: lexically enclosing defs, then self methods with
// inheritance, then the module's import and definition tables.
func (g *Graph) Resolve(n *Node, name string) (NodeID, bool) {
	if name == "" {
		return Unknown, false
	}
	if !strings.Contains(name, ".") {
		for enc := n; enc != nil; enc = enc.parent {
			if id, ok := enc.locals[name]; ok {
				return id, true
			}
		}
	}
	if n.Class != "" && strings.HasPrefix(name, "self.") {
		method := name[len("self."):]
		if !strings.Contains(method, ".") {
			if q, ok := g.resolver.ResolveSelfMethod(n.Module, n.Class, method); ok {
				if _, exists := g.Nodes[NodeID(q)]; exists {
					return NodeID(q), true
				}
			}
		}
		return Unknown, false
	}
	if q, ok := g.resolver.ResolveCall(n.Module, name); ok {
		if _, exists := g.Nodes[NodeID(q)]; exists {
			return NodeID(q), true
		}
	}
	return Unknown, false
}

// resolveEdges scans a node's body for call sites, skipping nested
// function and class bodies which are nodes of their own.
func (g *Graph) resolveEdges(n *Node) {
	seen := map[Edge]bool{}
	for _, stmt := range n.Body {
		pyast.Inspect(stmt, func(x pyast.Node) bool {
			switch v := x.(type) {
			case *pyast.FunctionDef, *pyast.ClassDef:
				return false
			case *pyast.Call:
				name, named := pyast.QualName(v.Func)
				var e Edge
				if !named {
					e = Edge{Callee: Unknown, Site: v.At}
				} else if id, ok := g.Resolve(n, name); ok {
					e = Edge{Callee: id, Site: v.At}
				} else {
					// Named but unresolved: a library or builtin call.
					// The taint engine classifies these by name.
					return true
				}
				if !seen[e] {
					seen[e] = true
					n.Edges = append(n.Edges, e)
				}
			}
			return true
		})
	}
}

// SCCOrder returns the strongly connected components of the graph with
// callees before their callers, the order summaries are computed in.
func (g *Graph) SCCOrder() [][]*Node {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	comps := graphutil.CondensedOrder(ids, func(id NodeID) []NodeID {
		var out []NodeID
		for _, e := range g.Nodes[id].Edges {
			if e.Callee != Unknown {
				out = append(out, e.Callee)
			}
		}
		return out
	})
	out := make([][]*Node, len(comps))
	for i, comp := range comps {
		nodes := make([]*Node, len(comp))
		for j, id := range comp {
			nodes[j] = g.Nodes[id]
		}
		out[i] = nodes
	}
	return out
}

func (g *Graph) nodesSorted() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
