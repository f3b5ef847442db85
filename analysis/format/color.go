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

// Package format provides ANSI-colored output helpers for the command line
// tools. Colors are disabled when stdout is not a terminal.
package format

import (
	"fmt"

	"golang.org/x/term"
)

// Ansi color wrappers for finding severities and trace output.
var (
	Red    = Color("\033[1;31m%s\033[0m")
	Green  = Color("\033[1;32m%s\033[0m")
	Yellow = Color("\033[1;33m%s\033[0m")
	Purple = Color("\033[1;34m%s\033[0m")
	Faint  = Color("\033[2m%s\033[0m")
	Bold   = Color("\033[1m%s\033[0m")
)

// Color returns a function that wraps its arguments in colorString when
// stdout is a terminal, and prints them plainly otherwise.
func Color(colorString string) func(...interface{}) string {
	return func(args ...interface{}) string {
		if term.IsTerminal(1) {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}
