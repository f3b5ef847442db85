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

// pytaint: taint analysis for Python projects over parser-emitted AST
// documents.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awslabs/pytaint/analysis/classify"
	"github.com/awslabs/pytaint/analysis/config"
	"github.com/awslabs/pytaint/analysis/format"
	"github.com/awslabs/pytaint/analysis/pyast"
	"github.com/awslabs/pytaint/analysis/report"
	"github.com/awslabs/pytaint/analysis/taint"
)

var (
	configPath   = flag.String("config", "", "config file path")
	outputFormat = flag.String("format", "text", "output format: text, json or sarif")
	outputPath   = flag.String("output", "", "write the report to a file instead of stdout")
	failOn       = flag.String("fail-on", "", "exit non-zero when a finding at or above this severity exists (overrides config)")
)

const usage = ` Taint analysis for Python source trees.
Usage:
    pytaint [options] <ast json file(s) or directories>
Examples:
% pytaint -config config.yaml build/ast/
The inputs are AST documents produced by the companion parser, one JSON
file per Python module.
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		config.SetGlobalConfig(*configPath)
		var err error
		cfg, err = config.LoadGlobal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(2)
		}
	}
	if *failOn != "" {
		cfg.FailOn = *failOn
	}
	logger := config.NewLogGroup(cfg)

	files, err := collectInputs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no AST documents found\n")
		os.Exit(2)
	}

	logger.Infof("%s", format.Faint(fmt.Sprintf("Reading %d AST documents", len(files))))
	var modules []*pyast.Module
	parseErrors := 0
	for _, file := range files {
		m, perr := pyast.DecodeFile(file)
		if perr != nil {
			parseErrors++
			logger.Warnf("skipping %s: %s", perr.File, perr.Message)
			continue
		}
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		fmt.Fprintf(os.Stderr, "no module could be decoded\n")
		os.Exit(2)
	}

	res, err := taint.Analyze(cfg, logger, modules, taint.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(2)
	}

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create %s: %v\n", *outputPath, err)
			os.Exit(2)
		}
		defer f.Close()
		out = f
	}

	switch *outputFormat {
	case "json":
		err = report.WriteJSON(out, res)
	case "sarif":
		err = report.WriteSARIF(out, res)
	case "text":
		printText(res)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *outputFormat)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not write report: %v\n", err)
		os.Exit(2)
	}

	if parseErrors > 0 {
		logger.Warnf("%d file(s) could not be decoded", parseErrors)
	}
	if shouldFail(cfg, res.Findings) {
		os.Exit(1)
	}
}

// collectInputs expands arguments into the list of .json AST documents,
// walking directories recursively.
func collectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return files, nil
}

func printText(res *taint.Result) {
	if len(res.Findings) == 0 {
		fmt.Println(format.Green("No taint flows found"))
		return
	}
	for _, f := range res.Findings {
		header := fmt.Sprintf("[%s] %s (%s, confidence %s)", f.RuleID, f.Vuln, f.Severity, f.Confidence)
		switch f.Severity {
		case classify.SeverityCritical, classify.SeverityHigh:
			fmt.Println(format.Red(header))
		case classify.SeverityMedium:
			fmt.Println(format.Yellow(header))
		default:
			fmt.Println(format.Purple(header))
		}
		fmt.Printf("  %s\n", f.Message)
		fmt.Printf("  Sink:   %s\n", f.SinkSite)
		if f.SourceSite.Line > 0 {
			fmt.Printf("  Source: %s (%s)\n", f.SourceSite, f.Source)
		}
		for _, h := range f.Trace {
			fmt.Printf("    %s\n", format.Faint(fmt.Sprintf("%s %s", h.Site, h.Note)))
		}
		if f.Remediation != "" {
			fmt.Printf("  Fix: %s\n", f.Remediation)
		}
		fmt.Println()
	}
	fmt.Printf("%d finding(s) in %d module(s), %s\n",
		len(res.Findings), res.Stats.Modules, res.Stats.Duration.Round(time.Millisecond))
}

// shouldFail applies the fail-on severity gate: with no gate configured,
// any finding fails the run.
func shouldFail(cfg *config.Config, findings []taint.Finding) bool {
	if len(findings) == 0 {
		return false
	}
	gate, ok := classify.ParseSeverity(cfg.FailOn)
	if !ok {
		return true
	}
	for _, f := range findings {
		if f.Severity >= gate {
			return true
		}
	}
	return false
}
