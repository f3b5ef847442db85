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

package pyast

import (
	"encoding/json"
	"fmt"
	"os"
)

// The parser emits one JSON document per source file:
//
//	{"kind": "Module", "name": "pkg.views", "path": "pkg/views.py",
//	 "body": [{"kind": "Assign", "line": 3, ...}, ...]}
//
// Node kinds mirror the exported statement and expression types. Unknown
// kinds decode to Pass/Lambda so that new parser output degrades
// conservatively instead of failing the file.

type rawAlias struct {
	Name string `json:"name"`
	As   string `json:"as"`
}

type rawParam struct {
	Name    string   `json:"name"`
	Default *rawNode `json:"default"`
}

type rawKeyword struct {
	Name  string   `json:"name"`
	Value *rawNode `json:"value"`
}

type rawNode struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Offset int    `json:"offset"`

	Name    string `json:"name"`
	Path    string `json:"path"`
	ID      string `json:"id"`
	Attr    string `json:"attr"`
	Op      string `json:"op"`
	Module  string `json:"module"`
	As      string `json:"as"`
	Const   string `json:"const"`
	IsAsync bool   `json:"async"`

	Value       *rawNode     `json:"value"`
	Target      *rawNode     `json:"target"`
	Func        *rawNode     `json:"func"`
	Test        *rawNode     `json:"test"`
	Iter        *rawNode     `json:"iter"`
	Left        *rawNode     `json:"left"`
	Right       *rawNode     `json:"right"`
	Subject     *rawNode     `json:"subject"`
	Index       *rawNode     `json:"index"`
	Context     *rawNode     `json:"context"`
	CondThen    *rawNode     `json:"then"`
	CondElse    *rawNode     `json:"else"`
	Body        []rawNode    `json:"body"`
	Orelse      []rawNode    `json:"orelse"`
	Final       []rawNode    `json:"final"`
	Handlers    []rawNode    `json:"handlers"`
	Cases       []rawNode    `json:"cases"`
	Items       []rawNode    `json:"items"`
	Targets     []rawNode    `json:"targets"`
	Args        []rawNode    `json:"args"`
	Values      []rawNode    `json:"values"`
	Elts        []rawNode    `json:"elts"`
	Keys        []rawNode    `json:"keys"`
	Comparators []rawNode    `json:"comparators"`
	Decorators  []rawNode    `json:"decorators"`
	Keywords    []rawKeyword `json:"keywords"`
	Params      []rawParam   `json:"params"`
	Names       []rawAlias   `json:"names"`
	Bases       []string     `json:"bases"`
}

// DecodeFile reads and decodes one parser-emitted AST document. Decoding
// failures are returned as a ParseError so callers can exclude the file and
// keep going.
func DecodeFile(path string) (*Module, *ParseError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: err.Error()}
	}
	m, err := DecodeModule(data)
	if err != nil {
		return nil, &ParseError{File: path, Message: err.Error()}
	}
	return m, nil
}

// DecodeModule decodes one parser-emitted AST document.
func DecodeModule(data []byte) (*Module, error) {
	var root rawNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid ast document: %w", err)
	}
	if root.Kind != "Module" {
		return nil, fmt.Errorf("top-level node is %q, want Module", root.Kind)
	}
	if root.Name == "" {
		return nil, fmt.Errorf("module without a name")
	}
	return NewModule(root.Name, root.Path, decodeStmts(root.Body)), nil
}

func (r *rawNode) pos() Position {
	return Position{Line: r.Line, Col: r.Col, Offset: r.Offset}
}

func decodeStmts(raw []rawNode) []Stmt {
	var out []Stmt
	for i := range raw {
		out = append(out, decodeStmt(&raw[i]))
	}
	return out
}

func decodeExprs(raw []rawNode) []Expr {
	var out []Expr
	for i := range raw {
		out = append(out, decodeExpr(&raw[i]))
	}
	return out
}

func decodeOptExpr(r *rawNode) Expr {
	if r == nil {
		return nil
	}
	return decodeExpr(r)
}

func decodeStmt(r *rawNode) Stmt {
	switch r.Kind {
	case "FunctionDef", "AsyncFunctionDef":
		params := make([]Param, 0, len(r.Params))
		for _, p := range r.Params {
			params = append(params, Param{Name: p.Name, Default: decodeOptExpr(p.Default)})
		}
		return &FunctionDef{
			At:         r.pos(),
			Name:       r.Name,
			Params:     params,
			Body:       decodeStmts(r.Body),
			Decorators: decodeExprs(r.Decorators),
			IsAsync:    r.IsAsync || r.Kind == "AsyncFunctionDef",
		}
	case "ClassDef":
		return &ClassDef{At: r.pos(), Name: r.Name, Bases: r.Bases, Body: decodeStmts(r.Body)}
	case "Assign":
		return &Assign{At: r.pos(), Targets: decodeExprs(r.Targets), Value: decodeOptExpr(r.Value)}
	case "AugAssign":
		return &AugAssign{At: r.pos(), Target: decodeOptExpr(r.Target), Value: decodeOptExpr(r.Value)}
	case "Return":
		return &Return{At: r.pos(), Value: decodeOptExpr(r.Value)}
	case "Expr":
		return &ExprStmt{At: r.pos(), Value: decodeOptExpr(r.Value)}
	case "If":
		return &If{At: r.pos(), Cond: decodeOptExpr(r.Test), Body: decodeStmts(r.Body), Orelse: decodeStmts(r.Orelse)}
	case "While":
		return &While{At: r.pos(), Cond: decodeOptExpr(r.Test), Body: decodeStmts(r.Body), Orelse: decodeStmts(r.Orelse)}
	case "For", "AsyncFor":
		return &For{At: r.pos(), Target: decodeOptExpr(r.Target), Iter: decodeOptExpr(r.Iter),
			Body: decodeStmts(r.Body), Orelse: decodeStmts(r.Orelse)}
	case "With", "AsyncWith":
		items := make([]WithItem, 0, len(r.Items))
		for i := range r.Items {
			items = append(items, WithItem{Context: decodeOptExpr(r.Items[i].Context), As: r.Items[i].As})
		}
		return &With{At: r.pos(), Items: items, Body: decodeStmts(r.Body)}
	case "Try":
		handlers := make([]ExceptHandler, 0, len(r.Handlers))
		for i := range r.Handlers {
			handlers = append(handlers, ExceptHandler{At: r.Handlers[i].pos(), Body: decodeStmts(r.Handlers[i].Body)})
		}
		return &Try{At: r.pos(), Body: decodeStmts(r.Body), Handlers: handlers,
			Orelse: decodeStmts(r.Orelse), Final: decodeStmts(r.Final)}
	case "Match":
		cases := make([]MatchCase, 0, len(r.Cases))
		for i := range r.Cases {
			cases = append(cases, MatchCase{At: r.Cases[i].pos(), Body: decodeStmts(r.Cases[i].Body)})
		}
		return &Match{At: r.pos(), Subject: decodeOptExpr(r.Subject), Cases: cases}
	case "Import":
		return &Import{At: r.pos(), Names: decodeAliases(r.Names)}
	case "ImportFrom":
		return &ImportFrom{At: r.pos(), Module: r.Module, Names: decodeAliases(r.Names)}
	default:
		return &Pass{At: r.pos()}
	}
}

func decodeAliases(raw []rawAlias) []ImportAlias {
	out := make([]ImportAlias, 0, len(raw))
	for _, a := range raw {
		out = append(out, ImportAlias{Name: a.Name, As: a.As})
	}
	return out
}

func decodeExpr(r *rawNode) Expr {
	switch r.Kind {
	case "Name":
		return &Name{At: r.pos(), ID: r.ID}
	case "Attribute":
		return &Attribute{At: r.pos(), Value: decodeOptExpr(r.Value), Attr: r.Attr}
	case "Subscript":
		return &Subscript{At: r.pos(), Value: decodeOptExpr(r.Value), Index: decodeOptExpr(r.Index)}
	case "Call":
		kws := make([]Keyword, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kws = append(kws, Keyword{Name: kw.Name, Value: decodeOptExpr(kw.Value)})
		}
		return &Call{At: r.pos(), Func: decodeOptExpr(r.Func), Args: decodeExprs(r.Args), Keywords: kws}
	case "Constant":
		return &Constant{At: r.pos(), Kind: constKind(r.Op), Value: r.Const}
	case "BinOp":
		return &BinOp{At: r.pos(), Left: decodeOptExpr(r.Left), Right: decodeOptExpr(r.Right), Op: r.Op}
	case "BoolOp":
		return &BoolOp{At: r.pos(), Values: decodeExprs(r.Values)}
	case "Compare":
		return &Compare{At: r.pos(), Left: decodeOptExpr(r.Left), Comparators: decodeExprs(r.Comparators)}
	case "FString", "JoinedStr":
		return &FString{At: r.pos(), Values: decodeExprs(r.Values)}
	case "Tuple":
		return &Tuple{At: r.pos(), Elts: decodeExprs(r.Elts)}
	case "List":
		return &List{At: r.pos(), Elts: decodeExprs(r.Elts)}
	case "Dict":
		return &Dict{At: r.pos(), Keys: decodeExprs(r.Keys), Values: decodeExprs(r.Values)}
	case "IfExp":
		return &IfExp{At: r.pos(), Cond: decodeOptExpr(r.Test), Then: decodeOptExpr(r.CondThen), Else: decodeOptExpr(r.CondElse)}
	case "Starred":
		return &Starred{At: r.pos(), Value: decodeOptExpr(r.Value)}
	case "Await":
		return &Await{At: r.pos(), Value: decodeOptExpr(r.Value)}
	default:
		// Lambdas, comprehensions, generators and anything newer are opaque
		// values for the engine.
		return &Lambda{At: r.pos()}
	}
}

// constKind maps the parser's constant tag (carried in "op") to a ConstKind.
func constKind(tag string) ConstKind {
	switch tag {
	case "num":
		return ConstNumber
	case "bool":
		return ConstBool
	case "none":
		return ConstNone
	default:
		return ConstString
	}
}
