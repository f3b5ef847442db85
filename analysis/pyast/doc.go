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

// Package pyast defines the Python syntax tree consumed by the taint
// engine. The engine does not parse Python itself: an external parser emits
// one JSON document per file (decoded by DecodeModule), with statement and
// expression nodes carrying 1-based line numbers and absolute byte offsets.
// The node set is deliberately smaller than full Python syntax; constructs
// the engine does not reason about decode to opaque Pass/Lambda nodes.
package pyast
