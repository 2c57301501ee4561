// Copyright 2025 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package assert

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// A SubsetError describes a single field of the expected resource that the
// actual resource doesn't satisfy.
type SubsetError struct {
	path    []string
	message string
}

// Error formats the error message, prefixed with the field path.
func (e *SubsetError) Error() string {
	if len(e.path) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.pathString(), e.message)
}

func (e *SubsetError) pathString() string {
	return strings.Join(e.path, ".")
}

// isSubset checks whether every field of expected appears with the same value
// in actual. Fields of actual that expected doesn't mention are ignored.
// Arrays must match in length and element order.
func isSubset(expected, actual any) (bool, error) {
	var errs []*SubsetError

	expected, actual = normalizeData(expected), normalizeData(actual)

	compare(expected, actual, nil, &errs)
	if len(errs) == 0 {
		return true, nil
	}

	sort.Slice(errs, func(i, j int) bool {
		return errs[i].pathString() < errs[j].pathString()
	})

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, fmt.Sprintf(" - %s", err.Error()))
	}
	return false, errors.New(strings.Join(msgs, "\n"))
}

// compare recursively compares expected against actual, recording a
// SubsetError for every divergence it finds.
func compare(expected, actual any, path []string, errs *[]*SubsetError) {
	if reflect.DeepEqual(expected, actual) {
		return
	}

	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		*errs = append(*errs, &SubsetError{
			path:    path,
			message: fmt.Sprintf("type mismatch: expected %T, got %T", expected, actual),
		})
		return
	}

	switch exp := expected.(type) {
	case map[string]any:
		act := actual.(map[string]any)
		for k, vExp := range exp {
			vAct, exists := act[k]
			if !exists {
				*errs = append(*errs, &SubsetError{
					path:    extendPath(path, k),
					message: "key is missing from map",
				})
				continue
			}
			compare(vExp, vAct, extendPath(path, k), errs)
		}
	case []any:
		act := actual.([]any)
		if len(exp) != len(act) {
			*errs = append(*errs, &SubsetError{
				path:    path,
				message: fmt.Sprintf("expected an array of length %d, but got an array of length %d", len(exp), len(act)),
			})
			return
		}
		for i, vExp := range exp {
			compare(vExp, act[i], extendPath(path, fmt.Sprintf("[%d]", i)), errs)
		}
	default:
		*errs = append(*errs, &SubsetError{
			path:    path,
			message: fmt.Sprintf("value mismatch: expected %v, got %v", expected, actual),
		})
	}
}

// extendPath returns a new path ending in elem. Siblings extend the same
// parent path, so the parent's backing array must not be shared.
func extendPath(path []string, elem string) []string {
	next := make([]string, 0, len(path)+1)
	next = append(next, path...)
	return append(next, elem)
}

// normalizeData unwraps *unstructured.Unstructured to its underlying map.
func normalizeData(obj any) any {
	if uns, ok := obj.(*unstructured.Unstructured); ok {
		return uns.Object
	}
	return obj
}
