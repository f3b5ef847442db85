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

// Package report renders analysis results as JSON or SARIF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/awslabs/pytaint/analysis/taint"
	"github.com/awslabs/pytaint/internal/funcutil"
)

// ToolName identifies the scanner in reports.
const ToolName = "pytaint"

// ToolVersion is stamped into reports; overridden at release build time.
var ToolVersion = "dev"

// Report is the JSON output document.
type Report struct {
	Tool        string        `json:"tool"`
	Version     string        `json:"version"`
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       RunStats      `json:"stats"`
	Findings    []JSONFinding `json:"findings"`
}

// RunStats mirrors taint.Stats with stable JSON names.
type RunStats struct {
	Modules    int    `json:"modules"`
	Functions  int    `json:"functions"`
	Edges      int    `json:"call_edges"`
	Findings   int    `json:"findings"`
	DurationMS int64  `json:"duration_ms"`
}

// JSONFinding is the serialized form of one finding.
type JSONFinding struct {
	RuleID      string     `json:"rule_id"`
	VulnType    string     `json:"vuln_type"`
	Severity    string     `json:"severity"`
	Confidence  string     `json:"confidence"`
	Source      string     `json:"source,omitempty"`
	SourceFile  string     `json:"source_file,omitempty"`
	SourceLine  int        `json:"source_line,omitempty"`
	File        string     `json:"file"`
	Line        int        `json:"line"`
	Message     string     `json:"message"`
	Remediation string     `json:"remediation,omitempty"`
	Trace       []TraceHop `json:"trace,omitempty"`
}

// TraceHop is one step of a finding's witness path.
type TraceHop struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Note string `json:"note"`
}

// Build assembles the report document for one analysis result.
func Build(res *taint.Result) *Report {
	r := &Report{
		Tool:        ToolName,
		Version:     ToolVersion,
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Stats: RunStats{
			Modules:    res.Stats.Modules,
			Functions:  res.Stats.Functions,
			Edges:      res.Stats.Edges,
			Findings:   res.Stats.Findings,
			DurationMS: res.Stats.Duration.Milliseconds(),
		},
		Findings: funcutil.Map(res.Findings, jsonFinding),
	}
	return r
}

func jsonFinding(f taint.Finding) JSONFinding {
	out := JSONFinding{
		RuleID:      f.RuleID,
		VulnType:    f.Vuln.String(),
		Severity:    f.Severity.String(),
		Confidence:  f.Confidence.String(),
		Source:      string(f.Source),
		SourceFile:  f.SourceSite.File,
		SourceLine:  f.SourceSite.Line,
		File:        f.SinkSite.File,
		Line:        f.SinkSite.Line,
		Message:     f.Message,
		Remediation: f.Remediation,
	}
	for _, h := range f.Trace {
		out.Trace = append(out.Trace, TraceHop{File: h.Site.File, Line: h.Site.Line, Note: h.Note})
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, res *taint.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Build(res)); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
