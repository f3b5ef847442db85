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

import "strings"

// Constructors for building syntax trees programmatically, mainly used by
// tests and by tools that feed synthetic code to the engine.

// At returns a position on the given line.
func At(line int) Position {
	return Position{Line: line}
}

// NewName returns a Name expression.
func NewName(line int, id string) *Name {
	return &Name{At: At(line), ID: id}
}

// NewDotted turns a dotted path ("request.args.get") into a Name or an
// Attribute chain.
func NewDotted(line int, dotted string) Expr {
	parts := strings.Split(dotted, ".")
	var e Expr = NewName(line, parts[0])
	for _, attr := range parts[1:] {
		e = &Attribute{At: At(line), Value: e, Attr: attr}
	}
	return e
}

// NewStr returns a string literal.
func NewStr(line int, s string) *Constant {
	return &Constant{At: At(line), Kind: ConstString, Value: s}
}

// NewInt returns a number literal.
func NewInt(line int, s string) *Constant {
	return &Constant{At: At(line), Kind: ConstNumber, Value: s}
}

// Kw returns a keyword argument.
func Kw(name string, value Expr) Keyword {
	return Keyword{Name: name, Value: value}
}

// NewCall returns a call of the dotted function path with the given
// positional arguments.
func NewCall(line int, dotted string, args ...Expr) *Call {
	return &Call{At: At(line), Func: NewDotted(line, dotted), Args: args}
}

// NewCallKw returns a call with positional and keyword arguments.
func NewCallKw(line int, dotted string, args []Expr, kws ...Keyword) *Call {
	return &Call{At: At(line), Func: NewDotted(line, dotted), Args: args, Keywords: kws}
}

// NewAssign returns `target = value` for a single name target.
func NewAssign(line int, target string, value Expr) *Assign {
	return &Assign{At: At(line), Targets: []Expr{NewName(line, target)}, Value: value}
}

// NewReturn returns a return statement.
func NewReturn(line int, value Expr) *Return {
	return &Return{At: At(line), Value: value}
}

// NewExprStmt wraps an expression into a statement.
func NewExprStmt(line int, value Expr) *ExprStmt {
	return &ExprStmt{At: At(line), Value: value}
}

// NewFString returns an f-string with the given interpolated expressions.
func NewFString(line int, values ...Expr) *FString {
	return &FString{At: At(line), Values: values}
}

// NewFunc returns a function definition with plain named parameters.
func NewFunc(line int, name string, params []string, body ...Stmt) *FunctionDef {
	ps := make([]Param, 0, len(params))
	for _, p := range params {
		ps = append(ps, Param{Name: p})
	}
	return &FunctionDef{At: At(line), Name: name, Params: ps, Body: body}
}

// NewClass returns a class definition.
func NewClass(line int, name string, bases []string, body ...Stmt) *ClassDef {
	return &ClassDef{At: At(line), Name: name, Bases: bases, Body: body}
}

// NewIf returns an if statement.
func NewIf(line int, cond Expr, body []Stmt, orelse ...Stmt) *If {
	return &If{At: At(line), Cond: cond, Body: body, Orelse: orelse}
}

// NewWhile returns a while loop.
func NewWhile(line int, cond Expr, body ...Stmt) *While {
	return &While{At: At(line), Cond: cond, Body: body}
}

// NewFor returns a for loop over a single name target.
func NewFor(line int, target string, iter Expr, body ...Stmt) *For {
	return &For{At: At(line), Target: NewName(line, target), Iter: iter, Body: body}
}

// NewImport returns `import name as alias` (alias may be empty).
func NewImport(line int, name, alias string) *Import {
	return &Import{At: At(line), Names: []ImportAlias{{Name: name, As: alias}}}
}

// NewImportFrom returns `from module import names...` where each name is
// "name" or "name:alias".
func NewImportFrom(line int, module string, names ...string) *ImportFrom {
	aliases := make([]ImportAlias, 0, len(names))
	for _, n := range names {
		if name, alias, found := strings.Cut(n, ":"); found {
			aliases = append(aliases, ImportAlias{Name: name, As: alias})
		} else {
			aliases = append(aliases, ImportAlias{Name: n})
		}
	}
	return &ImportFrom{At: At(line), Module: module, Names: aliases}
}
