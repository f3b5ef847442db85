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
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/awslabs/pytaint/analysis/callgraph"
	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/pyast"
)

func runAnalysis(t *testing.T, cfg *config.Config, opts Options, mods ...*pyast.Module) *Result {
	t.Helper()
	if cfg == nil {
		cfg = config.NewDefault()
	}
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	res, err := Analyze(cfg, logger, mods, opts)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return res
}

func shellTrue(line int) pyast.Keyword {
	return pyast.Kw("shell", &pyast.Constant{At: pyast.At(line), Kind: pyast.ConstBool, Value: "True"})
}

// request parameter formatted into a shell command.
func commandInjectionModule() *pyast.Module {
	return pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "handler", nil,
			pyast.NewAssign(2, "user", pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "name"))),
			pyast.NewAssign(3, "cmd", pyast.NewFString(3, pyast.NewName(3, "user"))),
			pyast.NewExprStmt(4, pyast.NewCallKw(4, "subprocess.run",
				[]pyast.Expr{pyast.NewName(4, "cmd")}, shellTrue(4))),
		),
	})
}

func TestCommandInjectionThroughFString(t *testing.T) {
	res := runAnalysis(t, nil, Options{}, commandInjectionModule())
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding, got %d: %+v", len(res.Findings), res.Findings)
	}
	f := res.Findings[0]
	if f.RuleID != "CSP-D003" || f.Vuln != classify.CommandInjection {
		t.Errorf("wrong rule: %s %s", f.RuleID, f.Vuln)
	}
	if f.Severity != classify.SeverityCritical || f.Confidence != HighConfidence {
		t.Errorf("expected CRITICAL/HIGH, got %s/%s", f.Severity, f.Confidence)
	}
	if f.SinkSite.Line != 4 || f.SourceSite.Line != 2 {
		t.Errorf("wrong sites: source %s sink %s", f.SourceSite, f.SinkSite)
	}
	if f.Source != classify.SourceWebRequest {
		t.Errorf("wrong source kind %q", f.Source)
	}
}

func TestSanitizerBreaksFlow(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "handler", nil,
			pyast.NewAssign(2, "user", pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "id"))),
			pyast.NewAssign(3, "n", pyast.NewCall(3, "int", pyast.NewName(3, "user"))),
			pyast.NewExprStmt(4, pyast.NewCall(4, "cursor.execute",
				pyast.NewFString(4, pyast.NewName(4, "n")))),
		),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 0 {
		t.Errorf("sanitized value should not be reported: %+v", res.Findings)
	}
}

func TestTaintThroughIdentityHelper(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "ident", []string{"x"},
			pyast.NewReturn(2, pyast.NewName(2, "x"))),
		pyast.NewFunc(4, "handler", nil,
			pyast.NewAssign(5, "u", pyast.NewCall(5, "request.args.get", pyast.NewStr(5, "q"))),
			pyast.NewAssign(6, "q", pyast.NewFString(6, pyast.NewCall(6, "ident", pyast.NewName(6, "u")))),
			pyast.NewExprStmt(7, pyast.NewCall(7, "cursor.execute", pyast.NewName(7, "q"))),
		),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding, got %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.RuleID != "CSP-D101" || f.Vuln != classify.SQLInjection {
		t.Errorf("wrong rule: %s %s", f.RuleID, f.Vuln)
	}
	if len(f.Trace) < 3 {
		t.Errorf("trace should pass through the helper call, got %v", f.Trace)
	}
	if f.Confidence != HighConfidence {
		t.Errorf("resolved helper should keep high confidence, got %s", f.Confidence)
	}
}

func TestTaintThroughMutatedArgument(t *testing.T) {
	// fill writes a tainted value into its argument; the caller passes a
	// fresh dict and then hands an entry of it to a shell sink.
	fillBody := &pyast.Assign{
		At: pyast.At(2),
		Targets: []pyast.Expr{&pyast.Subscript{
			At:    pyast.At(2),
			Value: pyast.NewName(2, "d"),
			Index: pyast.NewStr(2, "cmd"),
		}},
		Value: pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "x")),
	}
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "fill", []string{"d"}, fillBody),
		pyast.NewFunc(4, "handler", nil,
			pyast.NewAssign(5, "d", &pyast.Dict{At: pyast.At(5)}),
			pyast.NewExprStmt(6, pyast.NewCall(6, "fill", pyast.NewName(6, "d"))),
			pyast.NewExprStmt(7, pyast.NewCall(7, "os.system", &pyast.Subscript{
				At:    pyast.At(7),
				Value: pyast.NewName(7, "d"),
				Index: pyast.NewStr(7, "cmd"),
			})),
		),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding, got %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.Vuln != classify.CommandInjection {
		t.Errorf("wrong vulnerability: %s", f.Vuln)
	}
	if f.SinkSite.Line != 7 {
		t.Errorf("sink should be the os.system call, got line %d", f.SinkSite.Line)
	}
	if f.SourceSite.Line != 2 {
		t.Errorf("source should be the write inside fill, got line %d", f.SourceSite.Line)
	}
}

func TestMutualRecursionTerminates(t *testing.T) {
	m := pyast.NewModule("m", "m.py", []pyast.Stmt{
		pyast.NewFunc(1, "f", []string{"x"},
			pyast.NewReturn(2, pyast.NewCall(2, "g", pyast.NewName(2, "x")))),
		pyast.NewFunc(3, "g", []string{"x"},
			pyast.NewReturn(4, pyast.NewCall(4, "f", pyast.NewName(4, "x")))),
		pyast.NewFunc(5, "handler", nil,
			pyast.NewAssign(6, "u", pyast.NewCall(6, "input")),
			pyast.NewAssign(7, "v", pyast.NewCall(7, "f", pyast.NewName(7, "u"))),
			pyast.NewExprStmt(8, pyast.NewCall(8, "eval", pyast.NewName(8, "v")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	// f and g never return a value, so no taint reaches eval; the point
	// is that the analysis converges instead of spinning on the cycle.
	if len(res.Findings) != 0 {
		t.Errorf("unexpected findings on a diverging cycle: %+v", res.Findings)
	}
}

func TestExhaustedIterationAssumesWorstCase(t *testing.T) {
	m := pyast.NewModule("m", "m.py", []pyast.Stmt{
		pyast.NewFunc(1, "f", []string{"x"},
			pyast.NewReturn(2, pyast.NewCall(2, "g", pyast.NewName(2, "x")))),
		pyast.NewFunc(3, "g", []string{"x"},
			pyast.NewReturn(4, pyast.NewCall(4, "f", pyast.NewName(4, "x")))),
		pyast.NewFunc(5, "handler", nil,
			pyast.NewAssign(6, "u", pyast.NewCall(6, "input")),
			pyast.NewAssign(7, "v", pyast.NewCall(7, "f", pyast.NewName(7, "u"))),
			pyast.NewExprStmt(8, pyast.NewCall(8, "eval", pyast.NewName(8, "v")))),
	})
	cfg := config.NewDefault()
	cfg.MaxFixpointIters = 1
	res := runAnalysis(t, cfg, Options{}, m)
	// One sweep is not enough to settle the f/g cycle, so both summaries
	// are forced to their worst case and the flow into eval is reported
	// rather than dropped.
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding, got %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.RuleID != "CSP-D001" {
		t.Errorf("wrong rule: %s", f.RuleID)
	}
	if f.Confidence == HighConfidence {
		t.Errorf("worst-case summary should attenuate confidence, got %s", f.Confidence)
	}
}

func TestSummaryDemandForUnknownNode(t *testing.T) {
	m := pyast.NewModule("m", "m.py", []pyast.Stmt{
		pyast.NewFunc(1, "f", nil, pyast.NewReturn(2, pyast.NewInt(2, "1"))),
	})
	cfg := config.NewDefault()
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	g := callgraph.Merge([]*callgraph.Fragment{callgraph.BuildFragment(m)})
	s := NewSummarizer(g, classify.NewClassifier(cfg), logger, cfg)
	if eff := s.EffectFor(callgraph.NodeID("m.missing"), 0); eff != nil {
		t.Fatalf("unexpected effect for an unknown node: %+v", eff)
	}
	if !errors.Is(s.Err(), ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", s.Err())
	}
}

func TestRecursionWithSinkInside(t *testing.T) {
	m := pyast.NewModule("m", "m.py", []pyast.Stmt{
		pyast.NewFunc(1, "walk", []string{"path"},
			pyast.NewExprStmt(2, pyast.NewCall(2, "os.system", pyast.NewName(2, "path"))),
			pyast.NewExprStmt(3, pyast.NewCall(3, "walk", pyast.NewName(3, "path")))),
		pyast.NewFunc(5, "handler", nil,
			pyast.NewAssign(6, "p", pyast.NewCall(6, "input")),
			pyast.NewExprStmt(7, pyast.NewCall(7, "walk", pyast.NewName(7, "p")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding through the recursive callee, got %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.Vuln != classify.CommandInjection || f.SinkSite.Line != 2 {
		t.Errorf("wrong finding: %+v", f)
	}
	if f.Source != classify.SourceUserInput {
		t.Errorf("source should carry over from the caller, got %q", f.Source)
	}
}

func TestCrossModuleFlow(t *testing.T) {
	db := pyast.NewModule("svc.db", "svc/db.py", []pyast.Stmt{
		pyast.NewFunc(1, "run", []string{"sql"},
			pyast.NewReturn(2, pyast.NewCall(2, "cursor.execute", pyast.NewName(2, "sql")))),
	})
	app := pyast.NewModule("svc.app", "svc/app.py", []pyast.Stmt{
		pyast.NewImportFrom(1, "svc.db", "run"),
		pyast.NewFunc(3, "handler", nil,
			pyast.NewAssign(4, "u", pyast.NewCall(4, "request.args.get", pyast.NewStr(4, "q"))),
			pyast.NewExprStmt(5, pyast.NewCall(5, "run", pyast.NewName(5, "u")))),
	})
	res := runAnalysis(t, nil, Options{}, db, app)
	if len(res.Findings) != 1 {
		t.Fatalf("expected one cross-module finding, got %+v", res.Findings)
	}
	f := res.Findings[0]
	if f.SinkSite.File != "svc/db.py" || f.SourceSite.File != "svc/app.py" {
		t.Errorf("finding should span both files: %+v", f)
	}
	files := map[string]bool{}
	for _, h := range f.Trace {
		files[h.Site.File] = true
	}
	if !files["svc/app.py"] || !files["svc/db.py"] {
		t.Errorf("trace should reference both files, got %v", f.Trace)
	}
}

func TestModuleLevelFlow(t *testing.T) {
	m := pyast.NewModule("script", "script.py", []pyast.Stmt{
		pyast.NewAssign(1, "target", pyast.NewCall(1, "input")),
		pyast.NewExprStmt(2, pyast.NewCall(2, "os.system",
			pyast.NewFString(2, pyast.NewName(2, "target")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Fatalf("module-level code must be analyzed, got %+v", res.Findings)
	}
}

func TestUnresolvedCallLowersConfidence(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "handler", nil,
			pyast.NewAssign(2, "u", pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "q"))),
			pyast.NewAssign(3, "v", pyast.NewCall(3, "codec.transform", pyast.NewName(3, "u"))),
			pyast.NewExprStmt(4, pyast.NewCall(4, "cursor.execute", pyast.NewName(4, "v")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Fatalf("tainted data through an unresolved call must stay tainted, got %+v", res.Findings)
	}
	if res.Findings[0].Confidence != MediumConfidence {
		t.Errorf("one unresolved hop should give MEDIUM confidence, got %s", res.Findings[0].Confidence)
	}
}

func TestNoTaintWithoutSource(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "setup", nil,
			pyast.NewAssign(2, "q", pyast.NewStr(2, "SELECT 1")),
			pyast.NewExprStmt(3, pyast.NewCall(3, "cursor.execute", pyast.NewName(3, "q"))),
			pyast.NewExprStmt(4, pyast.NewCall(4, "eval", pyast.NewStr(4, "1+1")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 0 {
		t.Errorf("constants must never be reported: %+v", res.Findings)
	}
}

func TestLoopBodyAnalyzed(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "worker", nil,
			pyast.NewWhile(2, &pyast.Constant{At: pyast.At(2), Kind: pyast.ConstBool, Value: "True"},
				pyast.NewAssign(3, "cmd", pyast.NewCall(3, "input")),
				pyast.NewExprStmt(4, pyast.NewCall(4, "os.system", pyast.NewName(4, "cmd"))))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Errorf("flow inside a loop body should be found, got %+v", res.Findings)
	}
}

func TestExcludedRuleFiltered(t *testing.T) {
	cfg := config.NewDefault()
	cfg.ExcludedRules = []string{"CSP-D003"}
	res := runAnalysis(t, cfg, Options{}, commandInjectionModule())
	if len(res.Findings) != 0 {
		t.Errorf("excluded rule should drop the finding: %+v", res.Findings)
	}
}

func TestSeverityThreshold(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "go_to", nil,
			pyast.NewAssign(2, "u", pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "next"))),
			pyast.NewReturn(3, pyast.NewCall(3, "redirect", pyast.NewName(3, "u")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 || res.Findings[0].Severity != classify.SeverityMedium {
		t.Fatalf("expected one MEDIUM open redirect, got %+v", res.Findings)
	}
	cfg := config.NewDefault()
	cfg.SeverityThreshold = "HIGH"
	res = runAnalysis(t, cfg, Options{}, m)
	if len(res.Findings) != 0 {
		t.Errorf("threshold should drop findings below HIGH: %+v", res.Findings)
	}
}

func TestSuppression(t *testing.T) {
	opts := Options{Suppressed: func(file string, line int) bool {
		return file == "app.py" && line == 4
	}}
	res := runAnalysis(t, nil, opts, commandInjectionModule())
	if len(res.Findings) != 0 {
		t.Errorf("suppressed sink line should not be reported: %+v", res.Findings)
	}
}

func TestAnalysisIsDeterministic(t *testing.T) {
	a := runAnalysis(t, nil, Options{}, commandInjectionModule())
	b := runAnalysis(t, nil, Options{}, commandInjectionModule())
	if !reflect.DeepEqual(a.Findings, b.Findings) {
		t.Errorf("two runs over the same input disagree:\n%+v\n%+v", a.Findings, b.Findings)
	}
}

func TestDedupSameSinkTwoPaths(t *testing.T) {
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "sink", []string{"v"},
			pyast.NewExprStmt(2, pyast.NewCall(2, "eval", pyast.NewName(2, "v")))),
		pyast.NewFunc(4, "a", nil,
			pyast.NewExprStmt(5, pyast.NewCall(5, "sink", pyast.NewCall(5, "input")))),
		pyast.NewFunc(6, "b", nil,
			pyast.NewExprStmt(7, pyast.NewCall(7, "sink", pyast.NewCall(7, "input")))),
	})
	res := runAnalysis(t, nil, Options{}, m)
	if len(res.Findings) != 1 {
		t.Errorf("two paths to one sink line should report once, got %+v", res.Findings)
	}
}

func TestCustomSinkFromConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.CustomSinks = []config.SinkEntry{
		{Name: "templating.render_raw", RuleID: "CSP-D903", VulnType: "xss", Severity: "HIGH"},
	}
	m := pyast.NewModule("app", "app.py", []pyast.Stmt{
		pyast.NewFunc(1, "page", nil,
			pyast.NewAssign(2, "u", pyast.NewCall(2, "request.args.get", pyast.NewStr(2, "q"))),
			pyast.NewReturn(3, pyast.NewCall(3, "templating.render_raw", pyast.NewName(3, "u")))),
	})
	res := runAnalysis(t, cfg, Options{}, m)
	if len(res.Findings) != 1 || res.Findings[0].RuleID != "CSP-D903" {
		t.Fatalf("custom sink not honored: %+v", res.Findings)
	}
}

func TestParamBits(t *testing.T) {
	var b ParamBits
	b = b.Set(0).Set(3)
	if !b.Has(0) || !b.Has(3) || b.Has(1) {
		t.Errorf("bit operations wrong: %b", b)
	}
	if AllParams(3) != 0b111 {
		t.Errorf("AllParams(3) = %b", AllParams(3))
	}
	big := ParamBits(0).Set(70)
	if !big.Has(64) || !big.Has(200) {
		t.Errorf("indices past 63 must saturate into the last bit")
	}
	if !AllParams(100).Has(99) {
		t.Errorf("AllParams should cover saturated indices")
	}
}
