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

// ParamBits is a set of parameter indices, used to key function summaries
// by which parameters carry taint. Indices at or beyond 64 saturate into
// the last bit, which only loses precision for functions with more than 64
// parameters.
type ParamBits uint64

func bitFor(i int) ParamBits {
	if i >= 63 {
		i = 63
	}
	return 1 << uint(i)
}

// Set returns b with parameter i added.
func (b ParamBits) Set(i int) ParamBits { return b | bitFor(i) }

// Has reports whether parameter i is in the set.
func (b ParamBits) Has(i int) bool { return b&bitFor(i) != 0 }

// Empty reports whether no parameter is set.
func (b ParamBits) Empty() bool { return b == 0 }

// AllParams returns the set of the first n parameters.
func AllParams(n int) ParamBits {
	if n <= 0 {
		return 0
	}
	if n >= 64 {
		return ^ParamBits(0)
	}
	return (1 << uint(n)) - 1
}
