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
	"fmt"
	"sort"

	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/pyast"
)

// Confidence grades how certain the engine is about a finding. Every hop
// through an unresolved call lowers it.
type Confidence int

// Confidence levels.
const (
	LowConfidence Confidence = iota + 1
	MediumConfidence
	HighConfidence
)

func (c Confidence) String() string {
	switch c {
	case HighConfidence:
		return "HIGH"
	case MediumConfidence:
		return "MEDIUM"
	case LowConfidence:
		return "LOW"
	}
	return "UNDEFINED"
}

func confidenceFor(unknowns int) Confidence {
	switch unknowns {
	case 0:
		return HighConfidence
	case 1:
		return MediumConfidence
	default:
		return LowConfidence
	}
}

// Finding is one reported taint flow from a source to a sink.
type Finding struct {
	RuleID      string
	Vuln        classify.VulnType
	Severity    classify.Severity
	Confidence  Confidence
	Source      classify.SourceKind
	SourceSite  pyast.Position
	SinkSite    pyast.Position
	Message     string
	Remediation string
	// Trace is the witness path from the source to the sink.
	Trace []Hop
}

// findingKey deduplicates findings: distinct paths to the same sink line
// with the same vulnerability are one report.
type findingKey struct {
	file string
	line int
	vuln classify.VulnType
}

// Suppressed tells the emitter to drop findings at given positions, the
// hook for inline ignore pragmas.
type Suppressed func(file string, line int) bool

// EmitFindings turns the entry-point effects of every node into a
// deduplicated, filtered, deterministically ordered finding list.
func EmitFindings(s *Summarizer, cfg *config.Config, suppressed Suppressed) []Finding {
	threshold, hasThreshold := classify.ParseSeverity(cfg.SeverityThreshold)
	var out []Finding
	seen := map[findingKey]bool{}
	for _, id := range s.NodeIDs() {
		eff := s.EffectFor(id, 0)
		if eff == nil {
			// EffectFor has recorded ErrInvariant; the caller checks Err.
			continue
		}
		for _, reach := range eff.Sinks {
			f := findingFromReach(reach)
			key := findingKey{f.SinkSite.File, f.SinkSite.Line, f.Vuln}
			if seen[key] {
				continue
			}
			seen[key] = true
			if cfg.IsRuleExcluded(f.RuleID) {
				continue
			}
			if hasThreshold && f.Severity < threshold {
				continue
			}
			if suppressed != nil && suppressed(f.SinkSite.File, f.SinkSite.Line) {
				continue
			}
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SinkSite.File != b.SinkSite.File {
			return a.SinkSite.File < b.SinkSite.File
		}
		if a.SinkSite.Line != b.SinkSite.Line {
			return a.SinkSite.Line < b.SinkSite.Line
		}
		return a.RuleID < b.RuleID
	})
	return out
}

func findingFromReach(reach SinkReach) Finding {
	source := reach.Source
	if source == "" {
		source = "tainted data"
	}
	msg := fmt.Sprintf("%s from %s at %s reaches %s",
		reach.Rule.Vuln, source, reach.Origin, describeSink(reach.Rule))
	return Finding{
		RuleID:      reach.Rule.RuleID,
		Vuln:        reach.Rule.Vuln,
		Severity:    reach.Rule.Severity,
		Confidence:  confidenceFor(reach.Unknowns),
		Source:      reach.Source,
		SourceSite:  reach.Origin,
		SinkSite:    reach.Site,
		Message:     msg,
		Remediation: reach.Rule.Remediation,
		Trace:       reach.Chain,
	}
}

func describeSink(rule *classify.SinkRule) string {
	return fmt.Sprintf("%s (%s)", rule.Name, rule.Vuln)
}
