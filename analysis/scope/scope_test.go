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

package scope

import (
	"testing"

	"github.com/awslabs/pytaint/analysis/pyast"
)

func TestBuildTable(t *testing.T) {
	m := pyast.NewModule("pkg.app", "pkg/app.py", []pyast.Stmt{
		pyast.NewImport(1, "os", ""),
		pyast.NewImport(2, "pkg.helpers", "h"),
		pyast.NewImportFrom(3, "pkg.db", "query", "Cursor:Cur"),
		pyast.NewFunc(5, "main", nil),
		pyast.NewClass(10, "Handler", []string{"Base"},
			pyast.NewFunc(11, "get", []string{"self"}),
		),
	})
	tbl := BuildTable(m)

	if tbl.Imports["os"] != "os" || tbl.Imports["h"] != "pkg.helpers" {
		t.Errorf("imports: %v", tbl.Imports)
	}
	if tbl.Imports["query"] != "pkg.db.query" || tbl.Imports["Cur"] != "pkg.db.Cursor" {
		t.Errorf("from-imports: %v", tbl.Imports)
	}
	if tbl.Functions["main"] != "pkg.app.main" {
		t.Errorf("functions: %v", tbl.Functions)
	}
	if tbl.Classes["Handler"].Methods["get"] != "pkg.app.Handler.get" {
		t.Errorf("methods: %v", tbl.Classes["Handler"].Methods)
	}
}

func projectResolver() *Resolver {
	util := BuildTable(pyast.NewModule("pkg.util", "pkg/util.py", []pyast.Stmt{
		pyast.NewFunc(1, "fetch", []string{"url"}),
		pyast.NewClass(5, "Base", nil,
			pyast.NewFunc(6, "load", []string{"self"}),
		),
	}))
	// pkg.api re-exports fetch and restricts visibility with __all__.
	api := BuildTable(pyast.NewModule("pkg.api", "pkg/api.py", []pyast.Stmt{
		pyast.NewAssign(1, "__all__", &pyast.List{At: pyast.At(1), Elts: []pyast.Expr{pyast.NewStr(1, "fetch")}}),
		pyast.NewImportFrom(2, "pkg.util", "fetch", "Base"),
	}))
	app := BuildTable(pyast.NewModule("pkg.app", "pkg/app.py", []pyast.Stmt{
		pyast.NewImportFrom(1, "pkg.api", "fetch:get_data"),
		pyast.NewImport(2, "pkg.util", "u"),
		pyast.NewClass(4, "Client", []string{"u.Base"},
			pyast.NewFunc(5, "run", []string{"self"}),
		),
		pyast.NewFunc(10, "local", nil),
	}))
	return NewResolver([]*ModuleTable{util, api, app})
}

func TestResolveCallLocal(t *testing.T) {
	r := projectResolver()
	q, ok := r.ResolveCall("pkg.app", "local")
	if !ok || q != "pkg.app.local" {
		t.Errorf("local: got (%q, %v)", q, ok)
	}
}

func TestResolveCallThroughAliasedModule(t *testing.T) {
	r := projectResolver()
	q, ok := r.ResolveCall("pkg.app", "u.fetch")
	if !ok || q != "pkg.util.fetch" {
		t.Errorf("aliased module: got (%q, %v)", q, ok)
	}
}

func TestResolveCallThroughReexport(t *testing.T) {
	r := projectResolver()
	// get_data -> pkg.api.fetch -> (re-export) -> pkg.util.fetch
	q, ok := r.ResolveCall("pkg.app", "get_data")
	if !ok || q != "pkg.util.fetch" {
		t.Errorf("re-export chain: got (%q, %v)", q, ok)
	}
}

func TestAllRestrictsReexports(t *testing.T) {
	r := projectResolver()
	// Base is imported by pkg.api but absent from its __all__, so it is not
	// reachable through pkg.api.
	if q, ok := r.resolveAbsolute("pkg.api.Base", 0); ok {
		t.Errorf("Base should not resolve through pkg.api, got %q", q)
	}
}

func TestResolveSelfMethodWithInheritedBase(t *testing.T) {
	r := projectResolver()
	q, ok := r.ResolveSelfMethod("pkg.app", "Client", "run")
	if !ok || q != "pkg.app.Client.run" {
		t.Errorf("own method: got (%q, %v)", q, ok)
	}
	q, ok = r.ResolveSelfMethod("pkg.app", "Client", "load")
	if !ok || q != "pkg.util.Base.load" {
		t.Errorf("inherited method: got (%q, %v)", q, ok)
	}
	if _, ok := r.ResolveSelfMethod("pkg.app", "Client", "missing"); ok {
		t.Errorf("missing method should not resolve")
	}
}

func TestResolveCallUnknown(t *testing.T) {
	r := projectResolver()
	if _, ok := r.ResolveCall("pkg.app", "getattr_result"); ok {
		t.Errorf("unbound name should not resolve")
	}
	if _, ok := r.ResolveCall("missing.module", "f"); ok {
		t.Errorf("unknown module should not resolve")
	}
}
