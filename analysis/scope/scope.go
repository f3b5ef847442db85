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

// Package scope builds per-module qualified-name resolution tables: import
// aliases, module-level functions, class method tables and __all__ exports.
// The call-graph builder and the taint engine consume these tables instead
// of re-deriving symbol information from the syntax tree.
package scope

import (
	"strings"

	"github.com/awslabs/pytaint/analysis/pyast"
)

// maxAliasHops bounds re-export chains (from a import f; __all__ = ["f"]).
const maxAliasHops = 8

// ClassInfo describes one class of a module.
type ClassInfo struct {
	Name      string
	Qualified string
	// Bases keeps base-class names as written at the class header.
	Bases []string
	// Methods maps a method name to its qualified identity
	// ("module.Class.method").
	Methods map[string]string
}

// ModuleTable is the resolution table of one module.
type ModuleTable struct {
	Module string
	File   string
	// Imports maps a local alias to its qualified target: "np" -> "numpy",
	// "fetch" -> "pkg.client.fetch".
	Imports map[string]string
	// Functions maps a module-level function name to its qualified identity.
	Functions map[string]string
	// Classes maps a class name to its description.
	Classes map[string]*ClassInfo
	// Exports holds the __all__ names, nil when the module has no __all__.
	Exports []string
}

// Exported returns true if name is visible to importers of the module:
// listed in __all__ when present, any defined name otherwise.
func (t *ModuleTable) Exported(name string) bool {
	if t.Exports == nil {
		return true
	}
	for _, n := range t.Exports {
		if n == name {
			return true
		}
	}
	return false
}

// BuildTable walks the module body once and collects its resolution table.
func BuildTable(m *pyast.Module) *ModuleTable {
	t := &ModuleTable{
		Module:    m.Name,
		File:      m.Path,
		Imports:   map[string]string{},
		Functions: map[string]string{},
		Classes:   map[string]*ClassInfo{},
		Exports:   m.Exports,
	}
	for _, stmt := range m.Body {
		switch s := stmt.(type) {
		case *pyast.Import:
			for _, alias := range s.Names {
				t.Imports[alias.Local()] = alias.Name
			}
		case *pyast.ImportFrom:
			for _, alias := range s.Names {
				if alias.Name == "*" {
					continue
				}
				t.Imports[alias.Local()] = s.Module + "." + alias.Name
			}
		case *pyast.FunctionDef:
			t.Functions[s.Name] = m.Name + "." + s.Name
		case *pyast.ClassDef:
			info := &ClassInfo{
				Name:      s.Name,
				Qualified: m.Name + "." + s.Name,
				Bases:     s.Bases,
				Methods:   map[string]string{},
			}
			for _, member := range s.Body {
				if fn, ok := member.(*pyast.FunctionDef); ok {
					info.Methods[fn.Name] = info.Qualified + "." + fn.Name
				}
			}
			t.Classes[s.Name] = info
		}
	}
	return t
}

// Resolver answers qualified-name queries over all module tables of a
// project.
type Resolver struct {
	tables map[string]*ModuleTable
}

// NewResolver builds a resolver over the given tables.
func NewResolver(tables []*ModuleTable) *Resolver {
	r := &Resolver{tables: map[string]*ModuleTable{}}
	for _, t := range tables {
		r.tables[t.Module] = t
	}
	return r
}

// Table returns the table of a module, or nil.
func (r *Resolver) Table(module string) *ModuleTable {
	return r.tables[module]
}

// ResolveCall resolves a dotted call name as written inside fromModule to
// the qualified identity of a project function or method. It follows, in
// order: local module functions, import aliases (including aliased module
// prefixes), and __all__-mediated re-export chains. The boolean is false
// when the name does not refer to a function the project defines.
func (r *Resolver) ResolveCall(fromModule, dotted string) (string, bool) {
	tbl := r.tables[fromModule]
	if tbl == nil {
		return "", false
	}

	// Plain local function name.
	if q, ok := tbl.Functions[dotted]; ok {
		return q, true
	}

	head, rest, hasDot := strings.Cut(dotted, ".")

	// Local class constructor or Class.method reference.
	if cls, ok := tbl.Classes[head]; ok {
		if !hasDot {
			return cls.Qualified, true
		}
		if q, ok := cls.Methods[rest]; ok {
			return q, true
		}
		return "", false
	}

	// Import alias on the head: "helpers.f" with "import pkg.helpers as
	// helpers", or a directly imported function name.
	if target, ok := tbl.Imports[head]; ok {
		full := target
		if hasDot {
			full = target + "." + rest
		}
		return r.resolveAbsolute(full, 0)
	}

	return "", false
}

// ResolveSelfMethod resolves self.<method> against a class of fromModule,
// searching inherited bases in order.
func (r *Resolver) ResolveSelfMethod(fromModule, class, method string) (string, bool) {
	return r.resolveMethod(fromModule, class, method, 0)
}

func (r *Resolver) resolveMethod(fromModule, class, method string, depth int) (string, bool) {
	if depth > maxAliasHops {
		return "", false
	}
	tbl := r.tables[fromModule]
	if tbl == nil {
		return "", false
	}
	cls := tbl.Classes[class]
	if cls == nil {
		return "", false
	}
	if q, ok := cls.Methods[method]; ok {
		return q, true
	}
	for _, base := range cls.Bases {
		// A base may be local ("Base") or imported ("models.Base").
		baseModule, baseClass := fromModule, base
		if head, rest, hasDot := strings.Cut(base, "."); hasDot {
			if target, ok := tbl.Imports[head]; ok {
				baseModule, baseClass = target, rest
			}
		} else if target, ok := tbl.Imports[base]; ok {
			// from models import Base
			if mod, cls, found := splitOwner(target); found {
				baseModule, baseClass = mod, cls
			}
		}
		if q, ok := r.resolveMethod(baseModule, baseClass, method, depth+1); ok {
			return q, true
		}
	}
	return "", false
}

// resolveAbsolute resolves a fully qualified dotted path against the project
// tables, following re-export chains through module import tables.
func (r *Resolver) resolveAbsolute(full string, depth int) (string, bool) {
	if depth > maxAliasHops {
		return "", false
	}

	// Find the longest module prefix the project knows.
	module, remainder := splitModule(r.tables, full)
	if module == "" {
		return "", false
	}
	tbl := r.tables[module]
	if remainder == "" {
		return "", false
	}

	head, rest, hasDot := strings.Cut(remainder, ".")
	if !tbl.Exported(head) {
		return "", false
	}

	if !hasDot {
		if q, ok := tbl.Functions[head]; ok {
			return q, true
		}
		if cls, ok := tbl.Classes[head]; ok {
			return cls.Qualified, true
		}
		// Re-export: the module merely imports the name itself.
		if target, ok := tbl.Imports[head]; ok {
			return r.resolveAbsolute(target, depth+1)
		}
		return "", false
	}

	// Class.method inside the target module.
	if cls, ok := tbl.Classes[head]; ok {
		if q, ok := cls.Methods[rest]; ok {
			return q, true
		}
	}
	if target, ok := tbl.Imports[head]; ok {
		return r.resolveAbsolute(target+"."+rest, depth+1)
	}
	return "", false
}

// splitModule splits a dotted path into the longest known module prefix and
// the remainder.
func splitModule(tables map[string]*ModuleTable, full string) (string, string) {
	candidate := full
	for {
		if _, ok := tables[candidate]; ok {
			remainder := strings.TrimPrefix(full[len(candidate):], ".")
			return candidate, remainder
		}
		idx := strings.LastIndex(candidate, ".")
		if idx < 0 {
			return "", ""
		}
		candidate = candidate[:idx]
	}
}

// splitOwner splits "pkg.mod.Class" into ("pkg.mod", "Class").
func splitOwner(qualified string) (string, string, bool) {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return "", "", false
	}
	return qualified[:idx], qualified[idx+1:], true
}
