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

import "testing"

func TestQualName(t *testing.T) {
	cases := []struct {
		expr Expr
		want string
		ok   bool
	}{
		{NewName(1, "eval"), "eval", true},
		{NewDotted(1, "os.system"), "os.system", true},
		{NewDotted(1, "request.args.get"), "request.args.get", true},
		{NewCall(1, "f"), "", false},
		{NewStr(1, "x"), "", false},
	}
	for _, c := range cases {
		got, ok := QualName(c.expr)
		if ok != c.ok || got != c.want {
			t.Errorf("QualName: got (%q, %v), want (%q, %v)", got, ok, c.want, c.ok)
		}
	}
}

func TestNewModuleStampsFileAndExports(t *testing.T) {
	body := []Stmt{
		NewAssign(1, "__all__", &List{At: At(1), Elts: []Expr{NewStr(1, "f"), NewStr(1, "g")}}),
		NewFunc(2, "f", nil, NewReturn(3, NewCall(3, "input"))),
	}
	m := NewModule("pkg.mod", "pkg/mod.py", body)

	if len(m.Exports) != 2 || m.Exports[0] != "f" || m.Exports[1] != "g" {
		t.Errorf("exports: got %v", m.Exports)
	}
	fn := m.Body[1].(*FunctionDef)
	ret := fn.Body[0].(*Return)
	if ret.Value.Pos().File != "pkg/mod.py" {
		t.Errorf("file not stamped on nested node: %v", ret.Value.Pos())
	}
}

func TestDecodeModule(t *testing.T) {
	doc := `{
	  "kind": "Module", "name": "app", "path": "app.py",
	  "body": [
	    {"kind": "Assign", "line": 1, "col": 0,
	     "targets": [{"kind": "Name", "line": 1, "id": "name"}],
	     "value": {"kind": "Call", "line": 1,
	       "func": {"kind": "Attribute", "line": 1, "attr": "get",
	         "value": {"kind": "Attribute", "line": 1, "attr": "args",
	           "value": {"kind": "Name", "line": 1, "id": "request"}}},
	       "args": [{"kind": "Constant", "line": 1, "const": "x"}]}},
	    {"kind": "Expr", "line": 2,
	     "value": {"kind": "Call", "line": 2,
	       "func": {"kind": "Attribute", "line": 2, "attr": "run",
	         "value": {"kind": "Name", "line": 2, "id": "subprocess"}},
	       "args": [{"kind": "FString", "line": 2,
	         "values": [{"kind": "Name", "line": 2, "id": "name"}]}],
	       "keywords": [{"name": "shell", "value": {"kind": "Constant", "line": 2, "op": "bool", "const": "True"}}]}}
	  ]}`
	m, err := DecodeModule([]byte(doc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if m.Name != "app" || len(m.Body) != 2 {
		t.Fatalf("module mismatch: %s, %d stmts", m.Name, len(m.Body))
	}
	assign := m.Body[0].(*Assign)
	name, ok := QualName(assign.Value.(*Call).Func)
	if !ok || name != "request.args.get" {
		t.Errorf("decoded call func: %q", name)
	}
	call := m.Body[1].(*ExprStmt).Value.(*Call)
	if len(call.Keywords) != 1 || call.Keywords[0].Name != "shell" {
		t.Errorf("decoded keywords: %+v", call.Keywords)
	}
	if call.At.File != "app.py" || call.At.Line != 2 {
		t.Errorf("decoded position: %+v", call.At)
	}
}

func TestDecodeModuleErrors(t *testing.T) {
	if _, err := DecodeModule([]byte(`{"kind": "Expr"}`)); err == nil {
		t.Errorf("non-module root should fail")
	}
	if _, err := DecodeModule([]byte(`not json`)); err == nil {
		t.Errorf("invalid json should fail")
	}
	if _, err := DecodeModule([]byte(`{"kind": "Module", "path": "x.py"}`)); err == nil {
		t.Errorf("unnamed module should fail")
	}
}

func TestDecodeUnknownKindsDegrade(t *testing.T) {
	doc := `{"kind": "Module", "name": "m", "path": "m.py",
	  "body": [{"kind": "Delete", "line": 1},
	           {"kind": "Expr", "line": 2, "value": {"kind": "ListComp", "line": 2}}]}`
	m, err := DecodeModule([]byte(doc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := m.Body[0].(*Pass); !ok {
		t.Errorf("unknown stmt should decode to Pass, got %T", m.Body[0])
	}
	if _, ok := m.Body[1].(*ExprStmt).Value.(*Lambda); !ok {
		t.Errorf("unknown expr should decode to Lambda")
	}
}
