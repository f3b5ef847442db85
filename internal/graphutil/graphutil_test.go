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

package graphutil

import (
	"sort"
	"testing"
)

// handler -> helper -> query, with f and g mutually recursive off helper.
var calls = map[string][]string{
	"handler": {"helper", "f"},
	"helper":  {"query"},
	"query":   {},
	"f":       {"g"},
	"g":       {"f", "query"},
}

func succs(n string) []string { return calls[n] }

func names() []string {
	out := make([]string, 0, len(calls))
	for n := range calls {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func TestStronglyConnected(t *testing.T) {
	comps := StronglyConnected(names(), succs)
	byNode := map[string]int{}
	for i, comp := range comps {
		for _, n := range comp {
			byNode[n] = i
		}
	}
	if len(byNode) != 5 {
		t.Fatalf("expected every node assigned, got %v", byNode)
	}
	if byNode["f"] != byNode["g"] {
		t.Errorf("f and g are mutually recursive and must share a component")
	}
	if byNode["handler"] == byNode["helper"] || byNode["helper"] == byNode["query"] {
		t.Errorf("acyclic nodes must not be merged: %v", byNode)
	}
}

func TestCondensedOrderCalleesFirst(t *testing.T) {
	order := CondensedOrder(names(), succs)
	pos := map[string]int{}
	for i, comp := range order {
		for _, n := range comp {
			pos[n] = i
		}
	}
	for caller, callees := range calls {
		for _, callee := range callees {
			if pos[callee] > pos[caller] {
				t.Errorf("%s calls %s but is ordered before it: %v", caller, callee, order)
			}
		}
	}
	if pos["query"] != 0 {
		t.Errorf("query is a leaf and should come first, got order %v", order)
	}
}

func TestCondensedOrderIgnoresForeignSuccessors(t *testing.T) {
	order := CondensedOrder([]string{"a", "b"}, func(n string) []string {
		if n == "a" {
			return []string{"b", "missing"}
		}
		return nil
	})
	if len(order) != 2 || order[0][0] != "b" || order[1][0] != "a" {
		t.Errorf("unexpected order %v", order)
	}
}
