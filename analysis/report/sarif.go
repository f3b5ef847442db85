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

package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/taint"
)

const infoURI = "https://github.com/awslabs/pytaint"

// WriteSARIF writes the findings as a SARIF 2.1.0 log, one run with one
// reporting rule per distinct rule id.
func WriteSARIF(w io.Writer, res *taint.Result) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating sarif document: %w", err)
	}
	run := sarif.NewRunWithInformationURI(ToolName, infoURI)

	added := map[string]bool{}
	for _, f := range res.Findings {
		if !added[f.RuleID] {
			added[f.RuleID] = true
			run.AddRule(f.RuleID).
				WithDescription(f.Vuln.String()).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: sarifLevel(f.Severity),
				})
		}
		loc := sarif.NewLocation().
			WithPhysicalLocation(sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.SinkSite.File)).
				WithRegion(sarif.NewRegion().WithStartLine(f.SinkSite.Line)))
		result := sarif.NewRuleResult(f.RuleID).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLevel(sarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{loc})
		run.AddResult(result)
	}
	doc.AddRun(run)
	if err := doc.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing sarif: %w", err)
	}
	return nil
}

func sarifLevel(s classify.Severity) string {
	switch s {
	case classify.SeverityCritical, classify.SeverityHigh:
		return "error"
	case classify.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
