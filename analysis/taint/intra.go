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
	"strings"

	"github.com/awslabs/pytaint/analysis/callgraph"
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/pyast"
)

// run is the analysis of one function body under one parameter-taint
// assumption. It walks statements in source order, maintaining a may-taint
// environment, and records reached sinks, return taint and parameter
// mutations in eff.
type run struct {
	s        *Summarizer
	node     *callgraph.Node
	bits     ParamBits
	eff      *Effect
	paramIdx map[string]int
}

// analyze computes the effect of node n assuming the parameters in bits
// carry tainted data.
func (s *Summarizer) analyze(n *callgraph.Node, bits ParamBits) *Effect {
	r := &run{s: s, node: n, bits: bits, eff: &Effect{}, paramIdx: map[string]int{}}
	e := make(env)
	for i, p := range n.Params {
		r.paramIdx[p] = i
		if bits.Has(i) {
			e[p] = Taint{
				Tainted: true,
				Chain:   []Hop{{Site: pyast.Position{File: n.File, Line: n.Line}, Note: "parameter " + p}},
			}
		}
	}
	r.stmts(e, n.Body)
	return r.eff
}

// noteParamWrite records a mutation of a parameter's object so callers can
// re-taint the matching argument.
func (r *run) noteParamWrite(base string, t Taint) {
	if !t.Tainted {
		return
	}
	if i, ok := r.paramIdx[base]; ok {
		r.eff.taintParam(i, t)
	}
}

func (r *run) stmts(e env, body []pyast.Stmt) {
	for _, st := range body {
		r.stmt(e, st)
	}
}

func (r *run) stmt(e env, st pyast.Stmt) {
	switch s := st.(type) {
	case *pyast.FunctionDef, *pyast.ClassDef:
		// separate call graph nodes
	case *pyast.Import, *pyast.ImportFrom, *pyast.Pass:
	case *pyast.Assign:
		t := r.expr(e, s.Value)
		for _, tgt := range s.Targets {
			r.assign(e, tgt, t)
		}
	case *pyast.AugAssign:
		t := r.expr(e, s.Value)
		if name, ok := pyast.QualName(s.Target); ok {
			e[name] = union(e[name], t)
		}
	case *pyast.Return:
		if s.Value != nil {
			r.eff.Return = union(r.eff.Return, r.expr(e, s.Value))
		}
	case *pyast.ExprStmt:
		r.expr(e, s.Value)
	case *pyast.If:
		r.expr(e, s.Cond)
		then := e.clone()
		r.stmts(then, s.Body)
		els := e.clone()
		r.stmts(els, s.Orelse)
		e.join(then)
		e.join(els)
	case *pyast.While:
		r.expr(e, s.Cond)
		// one pass over the body, merged back: may-taint saturates after
		// a single unrolling for assignments without kill information
		once := e.clone()
		r.stmts(once, s.Body)
		e.join(once)
		r.stmts(e, s.Orelse)
	case *pyast.For:
		it := r.expr(e, s.Iter)
		r.assign(e, s.Target, it)
		once := e.clone()
		r.stmts(once, s.Body)
		e.join(once)
		r.stmts(e, s.Orelse)
	case *pyast.With:
		for _, item := range s.Items {
			t := r.expr(e, item.Context)
			if item.As != "" {
				e[item.As] = t
			}
		}
		r.stmts(e, s.Body)
	case *pyast.Try:
		r.stmts(e, s.Body)
		for _, h := range s.Handlers {
			hb := e.clone()
			r.stmts(hb, h.Body)
			e.join(hb)
		}
		r.stmts(e, s.Orelse)
		r.stmts(e, s.Final)
	case *pyast.Match:
		r.expr(e, s.Subject)
		for _, c := range s.Cases {
			cb := e.clone()
			r.stmts(cb, c.Body)
			e.join(cb)
		}
	}
}

// assign binds taint t to an assignment target. Tuple targets spread the
// value; a subscript store taints the whole container.
func (r *run) assign(e env, tgt pyast.Expr, t Taint) {
	switch v := tgt.(type) {
	case nil:
	case *pyast.Tuple:
		for _, el := range v.Elts {
			r.assign(e, el, t)
		}
	case *pyast.List:
		for _, el := range v.Elts {
			r.assign(e, el, t)
		}
	case *pyast.Starred:
		r.assign(e, v.Value, t)
	case *pyast.Subscript:
		if name, ok := pyast.QualName(v.Value); ok {
			e[name] = union(e[name], t)
			r.noteParamWrite(baseName(name), t)
		}
	default:
		if name, ok := pyast.QualName(tgt); ok {
			e[name] = t
			// a dotted target is an attribute store, visible to callers
			if base := baseName(name); base != name {
				r.noteParamWrite(base, t)
			}
		}
	}
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func (r *run) expr(e env, x pyast.Expr) Taint {
	switch v := x.(type) {
	case nil:
		return cleanValue()
	case *pyast.Name:
		return e[v.ID]
	case *pyast.Attribute:
		if name, ok := pyast.QualName(v); ok {
			if t, bound := e[name]; bound {
				return t
			}
			if tag := r.s.class.AttrTag(name); tag.Kind == classify.TagSource {
				return sourceTaint(tag.Source, v.At, name)
			}
		}
		// an attribute of a tainted value is tainted
		return r.expr(e, v.Value)
	case *pyast.Subscript:
		r.expr(e, v.Index)
		return r.expr(e, v.Value)
	case *pyast.Call:
		return r.call(e, v)
	case *pyast.Constant, *pyast.Lambda:
		return cleanValue()
	case *pyast.BinOp:
		return union(r.expr(e, v.Left), r.expr(e, v.Right))
	case *pyast.BoolOp:
		var t Taint
		for _, val := range v.Values {
			t = union(t, r.expr(e, val))
		}
		return t
	case *pyast.Compare:
		r.expr(e, v.Left)
		for _, c := range v.Comparators {
			r.expr(e, c)
		}
		return cleanValue()
	case *pyast.FString:
		var t Taint
		for _, val := range v.Values {
			t = union(t, r.expr(e, val))
		}
		return t
	case *pyast.Tuple:
		var t Taint
		for _, el := range v.Elts {
			t = union(t, r.expr(e, el))
		}
		return t
	case *pyast.List:
		var t Taint
		for _, el := range v.Elts {
			t = union(t, r.expr(e, el))
		}
		return t
	case *pyast.Dict:
		var t Taint
		for _, k := range v.Keys {
			t = union(t, r.expr(e, k))
		}
		for _, val := range v.Values {
			t = union(t, r.expr(e, val))
		}
		return t
	case *pyast.IfExp:
		r.expr(e, v.Cond)
		return union(r.expr(e, v.Then), r.expr(e, v.Else))
	case *pyast.Starred:
		return r.expr(e, v.Value)
	case *pyast.Await:
		return r.expr(e, v.Value)
	}
	return cleanValue()
}

func sourceTaint(kind classify.SourceKind, at pyast.Position, name string) Taint {
	return Taint{
		Tainted: true,
		Source:  kind,
		Origin:  at,
		Chain:   []Hop{{Site: at, Note: name}},
	}
}

// call evaluates a call expression: classify it as source, sink or
// sanitizer; otherwise substitute the callee's summary when the target
// resolves, and fall back to conservative propagation when it does not.
func (r *run) call(e env, c *pyast.Call) Taint {
	args := make([]Taint, len(c.Args))
	for i, a := range c.Args {
		args[i] = r.expr(e, a)
	}
	kwArgs := make(map[string]Taint, len(c.Keywords))
	var kwUnion Taint
	for _, kw := range c.Keywords {
		t := r.expr(e, kw.Value)
		kwArgs[kw.Name] = t
		kwUnion = union(kwUnion, t)
	}

	name, named := pyast.QualName(c.Func)
	if named {
		switch tag := r.s.class.CallTag(name, c); tag.Kind {
		case classify.TagSource:
			return sourceTaint(tag.Source, c.At, name)
		case classify.TagSanitizer:
			return cleanValue()
		case classify.TagSink:
			r.reportSink(tag.Sink, c, name, args, kwUnion)
			t := kwUnion
			for _, a := range args {
				t = union(t, a)
			}
			return t
		}
	}

	if id, ok := r.s.graph.Resolve(r.node, name); ok && named {
		return r.substitute(e, c, id, name, args, kwArgs)
	}

	// Unresolved target. A method called on a tainted value keeps the
	// taint; tainted arguments may flow through to the result.
	if recv := r.expr(e, c.Func); recv.Tainted {
		return recv
	}
	var t Taint
	for _, a := range args {
		t = union(t, a)
	}
	t = union(t, kwUnion)
	if t.Tainted {
		t.Unknowns++
		t.Chain = appendHop(t.Chain, Hop{Site: c.At, Note: "through unresolved call"})
	}
	return t
}

// substitute applies the callee's summary at a call site.
func (r *run) substitute(e env, c *pyast.Call, id callgraph.NodeID, name string, args []Taint, kwArgs map[string]Taint) Taint {
	callee := r.s.graph.Nodes[id]
	offset := 0
	if callee.IsMethod() && len(callee.Params) > 0 && callee.Params[0] == "self" {
		offset = 1
	}
	var bits ParamBits
	var witness Taint
	for i, t := range args {
		if t.Tainted {
			bits = bits.Set(i + offset)
			if !witness.Tainted {
				witness = t
			}
		}
	}
	for kwName, t := range kwArgs {
		if !t.Tainted {
			continue
		}
		for i, p := range callee.Params {
			if p == kwName {
				bits = bits.Set(i)
				if !witness.Tainted {
					witness = t
				}
			}
		}
	}

	eff := r.s.effectForCall(id, bits)
	if eff == nil {
		return cleanValue()
	}
	for _, reach := range eff.Sinks {
		r.absorbReach(reach, c, callee, witness)
	}
	for i := range callee.Params {
		if !eff.ParamsOut.Has(i) {
			continue
		}
		pt := r.liftTaint(eff.ParamTaint[i], c, "argument mutated by "+name, witness)
		if !pt.Tainted {
			continue
		}
		if j := i - offset; j >= 0 && j < len(c.Args) {
			r.retaint(e, c.Args[j], pt)
		}
		for _, kw := range c.Keywords {
			if kw.Name == callee.Params[i] {
				r.retaint(e, kw.Value, pt)
			}
		}
	}
	return r.liftTaint(eff.Return, c, "through "+name, witness)
}

// liftTaint maps a taint value recorded inside a callee onto the caller's
// frame. Taint born inside the callee carries over; taint relative to the
// callee's parameters takes the witness argument's source.
func (r *run) liftTaint(inner Taint, c *pyast.Call, note string, witness Taint) Taint {
	if !inner.Tainted {
		return cleanValue()
	}
	if inner.Origin.Line > 0 {
		t := inner
		t.Chain = appendHop(t.Chain, Hop{Site: c.At, Note: note})
		return t
	}
	if !witness.Tainted {
		return cleanValue()
	}
	t := witness
	t.Chain = appendHop(t.Chain, Hop{Site: c.At, Note: note})
	t.Chain = append(t.Chain, inner.Chain...)
	t.Unknowns += inner.Unknowns
	return t
}

// retaint marks a caller-side argument expression tainted after the callee
// mutated the object it refers to.
func (r *run) retaint(e env, arg pyast.Expr, t Taint) {
	name, ok := pyast.QualName(arg)
	if !ok {
		return
	}
	e[name] = union(e[name], t)
	r.noteParamWrite(baseName(name), t)
}

// absorbReach lifts a sink reached inside a callee into the current run.
// Reaches with a concrete origin carry over as is; parameter-relative
// reaches take the source of the tainted argument at this call site.
func (r *run) absorbReach(reach SinkReach, c *pyast.Call, callee *callgraph.Node, witness Taint) {
	if reach.Origin.Line > 0 {
		r.eff.addSink(reach)
		return
	}
	if !witness.Tainted {
		return
	}
	lifted := reach
	lifted.Source = witness.Source
	lifted.Origin = witness.Origin
	lifted.Unknowns += witness.Unknowns
	chain := appendHop(witness.Chain, Hop{Site: c.At, Note: "passed to " + callee.Name})
	lifted.Chain = append(chain, reach.Chain...)
	r.eff.addSink(lifted)
}

// reportSink records a sink reached directly in this body when one of its
// dangerous arguments carries taint.
func (r *run) reportSink(rule *classify.SinkRule, c *pyast.Call, name string, args []Taint, kwUnion Taint) {
	hit := cleanValue()
	for i, t := range args {
		if t.Tainted && rule.ArgIsDangerous(i) {
			hit = union(hit, t)
		}
	}
	if len(rule.DangerousArgs) == 0 {
		hit = union(hit, kwUnion)
	}
	if !hit.Tainted {
		return
	}
	r.eff.addSink(SinkReach{
		Rule:     rule,
		Site:     c.At,
		Source:   hit.Source,
		Origin:   hit.Origin,
		Chain:    appendHop(hit.Chain, Hop{Site: c.At, Note: name}),
		Unknowns: hit.Unknowns,
	})
}

// appendHop copies before appending; chains are shared across unioned
// values.
func appendHop(chain []Hop, h Hop) []Hop {
	out := make([]Hop, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}
