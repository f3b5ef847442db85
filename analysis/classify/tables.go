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

// Builtin sink table. Patterns follow the matching rules of matchName:
// a trailing dot matches any call under that prefix, a leading dot matches
// any attribute call with that suffix, everything else matches exactly.
var builtinSinks = []SinkRule{
	{
		Name:          "eval",
		RuleID:        "CSP-D001",
		Vuln:          CodeInjection,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Avoid eval(); parse the input with ast.literal_eval or a purpose-built parser.",
	},
	{
		Name:          "exec",
		RuleID:        "CSP-D002",
		Vuln:          CodeInjection,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Avoid exec(); restructure the code so dynamic execution is unnecessary.",
	},
	{
		Name:          "compile",
		RuleID:        "CSP-D001",
		Vuln:          CodeInjection,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Do not compile untrusted input; validate against an allowlist first.",
	},
	{
		Name:        "os.system",
		RuleID:      "CSP-D003",
		Vuln:        CommandInjection,
		Severity:    SeverityCritical,
		Remediation: "Use subprocess.run with a list argument and shell=False.",
	},
	{
		Name:        "os.popen",
		RuleID:      "CSP-D003",
		Vuln:        CommandInjection,
		Severity:    SeverityCritical,
		Remediation: "Use subprocess.run with a list argument and shell=False.",
	},
	{
		Name:              "subprocess.",
		RuleID:            "CSP-D003",
		Vuln:              CommandInjection,
		Severity:          SeverityCritical,
		RequiresShellTrue: true,
		Remediation:       "Pass the command as a list and drop shell=True.",
	},
	{
		Name:        ".execute",
		RuleID:      "CSP-D101",
		Vuln:        SQLInjection,
		Severity:    SeverityCritical,
		ParamSafe:   true,
		Remediation: "Use parameterized queries: cursor.execute(sql, params).",
	},
	{
		Name:        ".executemany",
		RuleID:      "CSP-D101",
		Vuln:        SQLInjection,
		Severity:    SeverityCritical,
		ParamSafe:   true,
		Remediation: "Use parameterized queries: cursor.executemany(sql, seq_of_params).",
	},
	{
		Name:          "sqlalchemy.text",
		RuleID:        "CSP-D102",
		Vuln:          SQLInjection,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Bind values with sqlalchemy.text(\"... :param\").bindparams(...).",
	},
	{
		Name:        ".objects.raw",
		RuleID:      "CSP-D102",
		Vuln:        SQLInjection,
		Severity:    SeverityCritical,
		ParamSafe:   true,
		Remediation: "Pass user values through the params argument of raw().",
	},
	{
		Name:        "open",
		RuleID:      "CSP-D501",
		Vuln:        PathTraversal,
		Severity:    SeverityHigh,
		DangerousArgs: []int{0},
		Remediation: "Resolve the path and verify it stays under the intended directory.",
	},
	{
		Name:        "shutil.",
		RuleID:      "CSP-D501",
		Vuln:        PathTraversal,
		Severity:    SeverityHigh,
		Remediation: "Resolve the path and verify it stays under the intended directory.",
	},
	{
		Name:        "requests.",
		RuleID:      "CSP-D402",
		Vuln:        SSRF,
		Severity:    SeverityHigh,
		DangerousArgs: []int{0},
		Remediation: "Validate the URL against an allowlist of hosts before fetching.",
	},
	{
		Name:        "httpx.",
		RuleID:      "CSP-D402",
		Vuln:        SSRF,
		Severity:    SeverityHigh,
		DangerousArgs: []int{0},
		Remediation: "Validate the URL against an allowlist of hosts before fetching.",
	},
	{
		Name:        "urllib.request.urlopen",
		RuleID:      "CSP-D402",
		Vuln:        SSRF,
		Severity:    SeverityHigh,
		DangerousArgs: []int{0},
		Remediation: "Validate the URL against an allowlist of hosts before fetching.",
	},
	{
		Name:        "urlopen",
		RuleID:      "CSP-D402",
		Vuln:        SSRF,
		Severity:    SeverityHigh,
		DangerousArgs: []int{0},
		Remediation: "Validate the URL against an allowlist of hosts before fetching.",
	},
	{
		Name:        "render_template_string",
		RuleID:      "CSP-D103",
		Vuln:        XSS,
		Severity:    SeverityHigh,
		Remediation: "Render a template file instead; autoescaping then applies.",
	},
	{
		Name:        "Markup",
		RuleID:      "CSP-D103",
		Vuln:        XSS,
		Severity:    SeverityHigh,
		Remediation: "Escape the value with markupsafe.escape before wrapping it.",
	},
	{
		Name:        "mark_safe",
		RuleID:      "CSP-D103",
		Vuln:        XSS,
		Severity:    SeverityHigh,
		Remediation: "Escape the value with django.utils.html.escape before marking it safe.",
	},
	{
		Name:          "pickle.load",
		RuleID:        "CSP-D201",
		Vuln:          Deserialization,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Never unpickle untrusted data; use json or a schema-checked format.",
	},
	{
		Name:          "pickle.loads",
		RuleID:        "CSP-D201",
		Vuln:          Deserialization,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Never unpickle untrusted data; use json or a schema-checked format.",
	},
	{
		Name:          "yaml.load",
		RuleID:        "CSP-D202",
		Vuln:          Deserialization,
		Severity:      SeverityCritical,
		DangerousArgs: []int{0},
		Remediation:   "Use yaml.safe_load for untrusted input.",
	},
	{
		Name:          "redirect",
		RuleID:        "CSP-D401",
		Vuln:          OpenRedirect,
		Severity:      SeverityMedium,
		DangerousArgs: []int{0},
		Remediation:   "Check the target against an allowlist of local routes before redirecting.",
	},
}

// Builtin taint sources, grouped by the kind of data they introduce.
// Call sources fire on call expressions, attribute sources on attribute or
// subscript reads.
var builtinCallSources = map[string]SourceKind{
	"input":           SourceUserInput,
	"os.getenv":       SourceEnvironment,
	"os.environ.get":  SourceEnvironment,
	"json.load":       SourceExternalData,
	"json.loads":      SourceExternalData,
	"yaml.safe_load":  SourceExternalData,
	".read":           SourceFileRead,
	".readline":       SourceFileRead,
	".readlines":      SourceFileRead,
	"request.args.get":    SourceWebRequest,
	"request.form.get":    SourceWebRequest,
	"request.cookies.get": SourceWebRequest,
	"request.files.get":   SourceWebRequest,
	"request.GET.get":     SourceWebRequest,
	"request.POST.get":    SourceWebRequest,
	"request.COOKIES.get": SourceWebRequest,
	"request.get_json":    SourceWebRequest,
}

var builtinAttrSources = map[string]SourceKind{
	"sys.argv":        SourceCommandLine,
	"os.environ":      SourceEnvironment,
	"request.args":    SourceWebRequest,
	"request.form":    SourceWebRequest,
	"request.data":    SourceWebRequest,
	"request.json":    SourceWebRequest,
	"request.cookies": SourceWebRequest,
	"request.files":   SourceWebRequest,
	"request.GET":     SourceWebRequest,
	"request.POST":    SourceWebRequest,
	"request.COOKIES": SourceWebRequest,
}

// Builtin sanitizers. Calling any of these on tainted data yields clean
// data. Conversion builtins count because they reject non-literal payloads.
var builtinSanitizers = map[string]bool{
	"int":                 true,
	"float":               true,
	"bool":                true,
	"html.escape":         true,
	"escape":              true,
	"cgi.escape":          true,
	"markupsafe.escape":   true,
	"shlex.quote":         true,
	"shlex.split":         true,
	"urllib.parse.quote":  true,
	"quote":               true,
	"bleach.clean":        true,
}
