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

package funcutil

import (
	"strconv"
	"testing"
)

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	want := []string{"1", "2", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Map: got %v at %d, want %v", got[i], i, want[i])
		}
	}
}

func TestMergeBothApplied(t *testing.T) {
	a := map[string]int{"x": 1, "y": 2}
	b := map[string]int{"y": 3, "z": 4}
	Merge(a, b, func(x, y int) int { return x + y })
	if a["x"] != 1 || a["y"] != 5 || a["z"] != 4 {
		t.Errorf("Merge: got %v", a)
	}
}

func TestUnion(t *testing.T) {
	a := map[int]bool{1: true}
	Union(a, map[int]bool{2: true})
	if !a[1] || !a[2] {
		t.Errorf("Union: got %v", a)
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 0, "a": 0, "b": 0}
	keys := SortedKeys(m)
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("SortedKeys: got %v", keys)
	}
}

func TestMapParallelPreservesOrder(t *testing.T) {
	var input []int
	for i := 0; i < 1000; i++ {
		input = append(input, i)
	}
	got := MapParallel(input, func(x int) int { return x * 2 }, 8)
	for i, x := range got {
		if x != 2*i {
			t.Fatalf("MapParallel: got %d at index %d, want %d", x, i, 2*i)
		}
	}
}
