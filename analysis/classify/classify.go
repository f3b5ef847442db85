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

// Package classify decides what role a name plays in a taint analysis:
// taint source, dangerous sink, or sanitizer. The builtin tables cover the
// common Python standard library and web framework surface; configuration
// entries extend them and take precedence on name collisions.
package classify

import (
	"strings"

	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/pyast"
	"github.com/awslabs/pytaint/internal/funcutil"
)

// SinkRule describes one dangerous call pattern.
type SinkRule struct {
	// Name is the pattern matched against the flattened call name. A
	// trailing dot matches any call beneath that module prefix
	// ("subprocess."), a leading dot matches any attribute call with that
	// suffix (".execute"), anything else matches exactly.
	Name string
	// RuleID identifies the rule in reports, e.g. "CSP-D101".
	RuleID string
	Vuln   VulnType
	Severity Severity
	// DangerousArgs lists the positional arguments that must be tainted
	// for the sink to fire. Empty means any argument counts.
	DangerousArgs []int
	// RequiresShellTrue limits the rule to calls carrying a literal
	// shell=True keyword.
	RequiresShellTrue bool
	// ParamSafe marks sinks whose second positional argument carries bind
	// parameters; such calls are treated as parameterized and safe.
	ParamSafe bool
	// Remediation is a short fix suggestion included in findings.
	Remediation string
}

// ArgIsDangerous reports whether positional argument i of a matching call
// can reach the sink.
func (r *SinkRule) ArgIsDangerous(i int) bool {
	if len(r.DangerousArgs) == 0 {
		return true
	}
	for _, d := range r.DangerousArgs {
		if d == i {
			return true
		}
	}
	return false
}

// TagKind discriminates the classification of a name.
type TagKind int

// Classification results.
const (
	TagNone TagKind = iota
	TagSource
	TagSink
	TagSanitizer
)

// Tag is the classification of one expression.
type Tag struct {
	Kind   TagKind
	Source SourceKind
	Sink   *SinkRule
}

// Classifier answers source/sink/sanitizer questions for flattened call
// and attribute names. It is immutable after construction and safe for
// concurrent use.
type Classifier struct {
	sinks       []SinkRule
	callSources map[string]SourceKind
	attrSources map[string]SourceKind
	sanitizers  map[string]bool
}

// NewClassifier builds a classifier from the builtin tables plus the
// custom entries of cfg. Custom entries are consulted first, so a custom
// sink or source with a builtin's name overrides it. A nil cfg yields the
// builtin tables alone.
func NewClassifier(cfg *config.Config) *Classifier {
	c := &Classifier{
		callSources: make(map[string]SourceKind, len(builtinCallSources)),
		attrSources: make(map[string]SourceKind, len(builtinAttrSources)),
		sanitizers:  make(map[string]bool, len(builtinSanitizers)),
	}
	funcutil.Merge(c.callSources, builtinCallSources, func(x, _ SourceKind) SourceKind { return x })
	funcutil.Merge(c.attrSources, builtinAttrSources, func(x, _ SourceKind) SourceKind { return x })
	funcutil.Union(c.sanitizers, builtinSanitizers)
	if cfg != nil {
		for _, s := range cfg.CustomSources {
			c.callSources[s] = SourceCustom
			c.attrSources[s] = SourceCustom
		}
		for _, s := range cfg.CustomSanitizers {
			c.sanitizers[s] = true
		}
		for _, e := range cfg.CustomSinks {
			c.sinks = append(c.sinks, customSinkRule(e))
		}
	}
	c.sinks = append(c.sinks, builtinSinks...)
	return c
}

func customSinkRule(e config.SinkEntry) SinkRule {
	vuln, ok := ParseVulnType(e.VulnType)
	if !ok {
		vuln = CodeInjection
	}
	sev, ok := ParseSeverity(e.Severity)
	if !ok {
		sev = DefaultSeverity(vuln)
	}
	id := e.RuleID
	if id == "" {
		id = "CSP-D900"
	}
	return SinkRule{
		Name:        e.Name,
		RuleID:      id,
		Vuln:        vuln,
		Severity:    sev,
		Remediation: e.Remediation,
	}
}

// matchName applies the three pattern modes described on SinkRule.Name.
func matchName(pattern, name string) bool {
	switch {
	case strings.HasSuffix(pattern, "."):
		return strings.HasPrefix(name, pattern)
	case strings.HasPrefix(pattern, "."):
		return strings.HasSuffix(name, pattern) && name != pattern[1:]
	default:
		return name == pattern
	}
}

// CallTag classifies a call expression whose flattened name is name.
// Sink rules win over sources so that a call appearing in both tables is
// reported rather than just propagated.
func (c *Classifier) CallTag(name string, call *pyast.Call) Tag {
	for i := range c.sinks {
		r := &c.sinks[i]
		if !matchName(r.Name, name) {
			continue
		}
		if r.RequiresShellTrue && !hasShellTrue(call) {
			continue
		}
		if r.ParamSafe && call != nil && len(call.Args) >= 2 {
			// Parameterized query, bind values travel separately.
			return Tag{Kind: TagSanitizer}
		}
		return Tag{Kind: TagSink, Sink: r}
	}
	if kind, ok := c.lookupSource(c.callSources, name); ok {
		return Tag{Kind: TagSource, Source: kind}
	}
	if c.IsSanitizer(name) {
		return Tag{Kind: TagSanitizer}
	}
	return Tag{}
}

// AttrTag classifies a bare attribute or subscript read, e.g. request.args
// or sys.argv[1].
func (c *Classifier) AttrTag(name string) Tag {
	if kind, ok := c.lookupSource(c.attrSources, name); ok {
		return Tag{Kind: TagSource, Source: kind}
	}
	return Tag{}
}

// IsSanitizer reports whether a call to name cleans its arguments.
func (c *Classifier) IsSanitizer(name string) bool {
	if c.sanitizers[name] {
		return true
	}
	// Method-style sanitizers match on their trailing attribute.
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return c.sanitizers[name[i+1:]]
	}
	return false
}

// lookupSource tries the exact name, then progressively drops leading
// components so that flask_request.args.get still matches
// request.args.get.
func (c *Classifier) lookupSource(table map[string]SourceKind, name string) (SourceKind, bool) {
	for {
		if kind, ok := table[name]; ok {
			return kind, true
		}
		i := strings.IndexByte(name, '.')
		if i < 0 {
			return "", false
		}
		name = name[i+1:]
	}
}

// hasShellTrue reports whether the call carries a literal shell=True.
func hasShellTrue(call *pyast.Call) bool {
	if call == nil {
		return false
	}
	for _, kw := range call.Keywords {
		if kw.Name != "shell" {
			continue
		}
		if c, ok := kw.Value.(*pyast.Constant); ok {
			return c.Kind == pyast.ConstBool && c.Value == "True"
		}
	}
	return false
}
