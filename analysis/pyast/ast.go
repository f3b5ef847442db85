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

import "fmt"

// Position locates a node in its source file. Lines are 1-based, columns and
// byte offsets 0-based, as produced by the parser.
type Position struct {
	File   string
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Node is any syntax node with a source position.
type Node interface {
	Pos() Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// A Module is one parsed source file. It is immutable after construction.
type Module struct {
	// Name is the qualified module path, e.g. "pkg.views".
	Name string
	// Path is the source file path reported in findings.
	Path string
	// Body holds the top-level statements.
	Body []Stmt
	// Exports holds the names listed in __all__, nil when absent.
	Exports []string
}

// NewModule builds a module, stamps every node position with path, and
// extracts the __all__ export list from the body.
func NewModule(name, path string, body []Stmt) *Module {
	m := &Module{Name: name, Path: path, Body: body}
	for _, s := range body {
		stampFile(s, path)
	}
	m.Exports = extractExports(body)
	return m
}

// extractExports finds a top-level `__all__ = [...]` assignment.
func extractExports(body []Stmt) []string {
	for _, s := range body {
		assign, ok := s.(*Assign)
		if !ok || len(assign.Targets) != 1 {
			continue
		}
		name, ok := assign.Targets[0].(*Name)
		if !ok || name.ID != "__all__" {
			continue
		}
		list, ok := assign.Value.(*List)
		if !ok {
			continue
		}
		var exports []string
		for _, elt := range list.Elts {
			if c, ok := elt.(*Constant); ok && c.Kind == ConstString {
				exports = append(exports, c.Value)
			}
		}
		return exports
	}
	return nil
}

// Param is a formal parameter of a function.
type Param struct {
	Name    string
	Default Expr
}

// ImportAlias is one name in an import statement, with its optional alias.
type ImportAlias struct {
	Name string
	As   string
}

// Local returns the name the alias binds in the importing scope.
func (a ImportAlias) Local() string {
	if a.As != "" {
		return a.As
	}
	return a.Name
}

// Keyword is a keyword argument at a call site.
type Keyword struct {
	Name  string
	Value Expr
}

// WithItem is one `expr as name` clause of a with statement.
type WithItem struct {
	Context Expr
	As      string
}

// ExceptHandler is one except clause of a try statement.
type ExceptHandler struct {
	At   Position
	Body []Stmt
}

// MatchCase is one case clause of a match statement. Patterns are opaque to
// the engine; only the body is analyzed.
type MatchCase struct {
	At   Position
	Body []Stmt
}

// Statements.

// FunctionDef is a function or method definition.
type FunctionDef struct {
	At         Position
	Name       string
	Params     []Param
	Body       []Stmt
	Decorators []Expr
	IsAsync    bool
}

// ClassDef is a class definition. Bases keeps base-class names as written.
type ClassDef struct {
	At    Position
	Name  string
	Bases []string
	Body  []Stmt
}

// Assign is `targets = value` (a single chained assignment keeps all
// targets).
type Assign struct {
	At      Position
	Targets []Expr
	Value   Expr
}

// AugAssign is `target op= value`.
type AugAssign struct {
	At     Position
	Target Expr
	Value  Expr
}

// Return is a return statement; Value may be nil.
type Return struct {
	At    Position
	Value Expr
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	At    Position
	Value Expr
}

// If is an if statement; elif chains appear as nested Ifs in Orelse.
type If struct {
	At     Position
	Cond   Expr
	Body   []Stmt
	Orelse []Stmt
}

// While is a while loop.
type While struct {
	At     Position
	Cond   Expr
	Body   []Stmt
	Orelse []Stmt
}

// For is a for loop.
type For struct {
	At     Position
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

// With is a with statement.
type With struct {
	At    Position
	Items []WithItem
	Body  []Stmt
}

// Try is a try statement.
type Try struct {
	At       Position
	Body     []Stmt
	Handlers []ExceptHandler
	Orelse   []Stmt
	Final    []Stmt
}

// Match is a match statement.
type Match struct {
	At      Position
	Subject Expr
	Cases   []MatchCase
}

// Import is `import a.b as c, d`.
type Import struct {
	At    Position
	Names []ImportAlias
}

// ImportFrom is `from module import name as alias, ...`.
type ImportFrom struct {
	At     Position
	Module string
	Names  []ImportAlias
}

// Pass is a pass statement, also used for statements the parser does not
// model further.
type Pass struct {
	At Position
}

// Expressions.

// Name is an identifier reference.
type Name struct {
	At Position
	ID string
}

// Attribute is `value.attr`.
type Attribute struct {
	At    Position
	Value Expr
	Attr  string
}

// Subscript is `value[index]`.
type Subscript struct {
	At    Position
	Value Expr
	Index Expr
}

// Call is a call expression.
type Call struct {
	At       Position
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// ConstKind distinguishes constant literals where the engine cares.
type ConstKind int

// Constant literal kinds.
const (
	ConstString ConstKind = iota
	ConstNumber
	ConstBool
	ConstNone
)

// Constant is a literal.
type Constant struct {
	At    Position
	Kind  ConstKind
	Value string
}

// BinOp is a binary operation; Op keeps the operator as written ("+", "%").
type BinOp struct {
	At    Position
	Left  Expr
	Right Expr
	Op    string
}

// BoolOp is `and`/`or` over two or more values.
type BoolOp struct {
	At     Position
	Values []Expr
}

// Compare is a comparison chain.
type Compare struct {
	At          Position
	Left        Expr
	Comparators []Expr
}

// FString is a formatted string literal; Values holds only the interpolated
// expressions, literal fragments carry no taint.
type FString struct {
	At     Position
	Values []Expr
}

// Tuple is a tuple display.
type Tuple struct {
	At   Position
	Elts []Expr
}

// List is a list display.
type List struct {
	At   Position
	Elts []Expr
}

// Dict is a dict display; Keys[i] may be nil for `**spread` entries.
type Dict struct {
	At     Position
	Keys   []Expr
	Values []Expr
}

// IfExp is a conditional expression `a if cond else b`.
type IfExp struct {
	At   Position
	Cond Expr
	Then Expr
	Else Expr
}

// Lambda is a lambda expression; its body is opaque to the engine.
type Lambda struct {
	At Position
}

// Starred is `*value` in a call or assignment.
type Starred struct {
	At    Position
	Value Expr
}

// Await is `await value`.
type Await struct {
	At    Position
	Value Expr
}

func (n *FunctionDef) Pos() Position { return n.At }
func (n *ClassDef) Pos() Position    { return n.At }
func (n *Assign) Pos() Position      { return n.At }
func (n *AugAssign) Pos() Position   { return n.At }
func (n *Return) Pos() Position      { return n.At }
func (n *ExprStmt) Pos() Position    { return n.At }
func (n *If) Pos() Position          { return n.At }
func (n *While) Pos() Position       { return n.At }
func (n *For) Pos() Position         { return n.At }
func (n *With) Pos() Position        { return n.At }
func (n *Try) Pos() Position         { return n.At }
func (n *Match) Pos() Position       { return n.At }
func (n *Import) Pos() Position      { return n.At }
func (n *ImportFrom) Pos() Position  { return n.At }
func (n *Pass) Pos() Position        { return n.At }
func (n *Name) Pos() Position        { return n.At }
func (n *Attribute) Pos() Position   { return n.At }
func (n *Subscript) Pos() Position   { return n.At }
func (n *Call) Pos() Position        { return n.At }
func (n *Constant) Pos() Position    { return n.At }
func (n *BinOp) Pos() Position       { return n.At }
func (n *BoolOp) Pos() Position      { return n.At }
func (n *Compare) Pos() Position     { return n.At }
func (n *FString) Pos() Position     { return n.At }
func (n *Tuple) Pos() Position       { return n.At }
func (n *List) Pos() Position        { return n.At }
func (n *Dict) Pos() Position        { return n.At }
func (n *IfExp) Pos() Position       { return n.At }
func (n *Lambda) Pos() Position      { return n.At }
func (n *Starred) Pos() Position     { return n.At }
func (n *Await) Pos() Position       { return n.At }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*Return) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*With) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*Match) stmtNode()       {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Pass) stmtNode()        {}

func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*Call) exprNode()      {}
func (*Constant) exprNode()  {}
func (*BinOp) exprNode()     {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*FString) exprNode()   {}
func (*Tuple) exprNode()     {}
func (*List) exprNode()      {}
func (*Dict) exprNode()      {}
func (*IfExp) exprNode()     {}
func (*Lambda) exprNode()    {}
func (*Starred) exprNode()   {}
func (*Await) exprNode()     {}

// ParseError reports a file the parser could not handle. It is non-fatal:
// the file is excluded from the call graph and surfaced to the report layer.
type ParseError struct {
	File    string
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
