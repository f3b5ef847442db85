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

package classify

import "strings"

// Severity scores a finding from least to most urgent.
type Severity int

// Severity levels, ordered so that comparisons work.
const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	}
	return "UNDEFINED"
}

// ParseSeverity reads a severity name; the boolean is false for unknown
// names.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical, true
	case "HIGH":
		return SeverityHigh, true
	case "MEDIUM":
		return SeverityMedium, true
	case "LOW":
		return SeverityLow, true
	}
	return 0, false
}

// VulnType is the vulnerability category of a sink.
type VulnType int

// Vulnerability categories.
const (
	CodeInjection VulnType = iota + 1
	CommandInjection
	SQLInjection
	PathTraversal
	SSRF
	XSS
	Deserialization
	OpenRedirect
	SensitiveLog
)

func (v VulnType) String() string {
	switch v {
	case CodeInjection:
		return "Code Injection"
	case CommandInjection:
		return "Command Injection"
	case SQLInjection:
		return "SQL Injection"
	case PathTraversal:
		return "Path Traversal"
	case SSRF:
		return "SSRF"
	case XSS:
		return "XSS"
	case Deserialization:
		return "Insecure Deserialization"
	case OpenRedirect:
		return "Open Redirect"
	case SensitiveLog:
		return "Sensitive Data Logging"
	}
	return "Unknown"
}

// ParseVulnType reads a vulnerability category from its configuration name.
func ParseVulnType(s string) (VulnType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code-injection":
		return CodeInjection, true
	case "command-injection":
		return CommandInjection, true
	case "sql-injection":
		return SQLInjection, true
	case "path-traversal":
		return PathTraversal, true
	case "ssrf":
		return SSRF, true
	case "xss":
		return XSS, true
	case "deserialization":
		return Deserialization, true
	case "open-redirect":
		return OpenRedirect, true
	case "sensitive-log":
		return SensitiveLog, true
	}
	return 0, false
}

// DefaultSeverity is the severity attached to a vulnerability category when
// a sink entry does not override it. Command and code execution rank
// highest, logging of sensitive data lowest.
func DefaultSeverity(v VulnType) Severity {
	switch v {
	case CodeInjection, CommandInjection, SQLInjection, Deserialization:
		return SeverityCritical
	case PathTraversal, SSRF, XSS:
		return SeverityHigh
	case OpenRedirect:
		return SeverityMedium
	case SensitiveLog:
		return SeverityLow
	}
	return SeverityMedium
}

// SourceKind names where untrusted data entered the program.
type SourceKind string

// Source kinds.
const (
	SourceUserInput    SourceKind = "user input"
	SourceWebRequest   SourceKind = "web request"
	SourceEnvironment  SourceKind = "environment variable"
	SourceCommandLine  SourceKind = "command line"
	SourceFileRead     SourceKind = "file read"
	SourceExternalData SourceKind = "external data"
	SourceCustom       SourceKind = "custom source"
)
