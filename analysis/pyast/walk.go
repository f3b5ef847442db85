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

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(x Node) {
		if x != nil {
			out = append(out, x)
		}
	}
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addStmts := func(body []Stmt) {
		for _, s := range body {
			add(s)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			addExpr(e)
		}
	}

	switch v := n.(type) {
	case *FunctionDef:
		addExprs(v.Decorators)
		for _, p := range v.Params {
			addExpr(p.Default)
		}
		addStmts(v.Body)
	case *ClassDef:
		addStmts(v.Body)
	case *Assign:
		addExprs(v.Targets)
		addExpr(v.Value)
	case *AugAssign:
		addExpr(v.Target)
		addExpr(v.Value)
	case *Return:
		addExpr(v.Value)
	case *ExprStmt:
		addExpr(v.Value)
	case *If:
		addExpr(v.Cond)
		addStmts(v.Body)
		addStmts(v.Orelse)
	case *While:
		addExpr(v.Cond)
		addStmts(v.Body)
		addStmts(v.Orelse)
	case *For:
		addExpr(v.Target)
		addExpr(v.Iter)
		addStmts(v.Body)
		addStmts(v.Orelse)
	case *With:
		for _, item := range v.Items {
			addExpr(item.Context)
		}
		addStmts(v.Body)
	case *Try:
		addStmts(v.Body)
		for _, h := range v.Handlers {
			addStmts(h.Body)
		}
		addStmts(v.Orelse)
		addStmts(v.Final)
	case *Match:
		addExpr(v.Subject)
		for _, c := range v.Cases {
			addStmts(c.Body)
		}
	case *Attribute:
		addExpr(v.Value)
	case *Subscript:
		addExpr(v.Value)
		addExpr(v.Index)
	case *Call:
		addExpr(v.Func)
		addExprs(v.Args)
		for _, kw := range v.Keywords {
			addExpr(kw.Value)
		}
	case *BinOp:
		addExpr(v.Left)
		addExpr(v.Right)
	case *BoolOp:
		addExprs(v.Values)
	case *Compare:
		addExpr(v.Left)
		addExprs(v.Comparators)
	case *FString:
		addExprs(v.Values)
	case *Tuple:
		addExprs(v.Elts)
	case *List:
		addExprs(v.Elts)
	case *Dict:
		addExprs(v.Keys)
		addExprs(v.Values)
	case *IfExp:
		addExpr(v.Cond)
		addExpr(v.Then)
		addExpr(v.Else)
	case *Starred:
		addExpr(v.Value)
	case *Await:
		addExpr(v.Value)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first preorder, calling f
// for each node. If f returns false for a node, its children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// QualName flattens a Name or a short Attribute chain rooted at a Name into
// a dotted string ("subprocess.run", "db.cursor.execute"). It fails for
// chains rooted at calls or subscripts, which the engine treats as dynamic.
func QualName(e Expr) (string, bool) {
	switch v := e.(type) {
	case *Name:
		return v.ID, true
	case *Attribute:
		prefix, ok := QualName(v.Value)
		if !ok {
			return "", false
		}
		return prefix + "." + v.Attr, true
	default:
		return "", false
	}
}

// stampFile sets the File of every position under n.
func stampFile(n Node, file string) {
	Inspect(n, func(x Node) bool {
		switch v := x.(type) {
		case *FunctionDef:
			v.At.File = file
		case *ClassDef:
			v.At.File = file
		case *Assign:
			v.At.File = file
		case *AugAssign:
			v.At.File = file
		case *Return:
			v.At.File = file
		case *ExprStmt:
			v.At.File = file
		case *If:
			v.At.File = file
		case *While:
			v.At.File = file
		case *For:
			v.At.File = file
		case *With:
			v.At.File = file
		case *Try:
			v.At.File = file
		case *Match:
			v.At.File = file
		case *Import:
			v.At.File = file
		case *ImportFrom:
			v.At.File = file
		case *Pass:
			v.At.File = file
		case *Name:
			v.At.File = file
		case *Attribute:
			v.At.File = file
		case *Subscript:
			v.At.File = file
		case *Call:
			v.At.File = file
		case *Constant:
			v.At.File = file
		case *BinOp:
			v.At.File = file
		case *BoolOp:
			v.At.File = file
		case *Compare:
			v.At.File = file
		case *FString:
			v.At.File = file
		case *Tuple:
			v.At.File = file
		case *List:
			v.At.File = file
		case *Dict:
			v.At.File = file
		case *IfExp:
			v.At.File = file
		case *Lambda:
			v.At.File = file
		case *Starred:
			v.At.File = file
		case *Await:
			v.At.File = file
		}
		return true
	})
}
