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

// Package assert compares expected resources against actual resources using
// subset semantics. A resource asserts successfully when every field the
// expected resource specifies appears with the same value in the actual
// resource.
package assert

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Assert compares each expected resource against the actual resources,
// writing a result line per expected resource to w. Expected resources are
// matched to actual resources by name, then by labels, then by GVK alone.
// It returns an error when any expected resource fails to assert.
func Assert(expected, actual []*unstructured.Unstructured, skipSuccessLogs bool, w io.Writer) error {
	failures := 0

	for _, exp := range expected {
		match := findMatch(exp, actual)
		if match == nil {
			failures++
			if _, err := fmt.Fprintf(w, "[x] %s\n - resource is missing\n", identifier(exp)); err != nil {
				return errors.Wrap(err, "cannot write assertion results")
			}
			continue
		}

		ok, subErr := isSubset(exp, match)
		if ok {
			if skipSuccessLogs {
				continue
			}
			if _, err := fmt.Fprintf(w, "[✓] %s asserted successfully\n", identifier(exp)); err != nil {
				return errors.Wrap(err, "cannot write assertion results")
			}
			continue
		}

		failures++
		if _, err := fmt.Fprintf(w, "[x] %s\n%s\n", identifier(exp), subErr.Error()); err != nil {
			return errors.Wrap(err, "cannot write assertion results")
		}
	}

	if failures > 0 {
		return errors.Errorf("%d of %d resources failed assertion", failures, len(expected))
	}
	return nil
}

// findMatch returns the actual resource the expected resource should be
// compared against, or nil if no actual resource matches its identity.
func findMatch(expected *unstructured.Unstructured, actual []*unstructured.Unstructured) *unstructured.Unstructured {
	for _, act := range actual {
		if act.GroupVersionKind() != expected.GroupVersionKind() {
			continue
		}
		if name := expected.GetName(); name != "" {
			if act.GetName() == name {
				return act
			}
			continue
		}
		if labels := expected.GetLabels(); len(labels) > 0 {
			if hasLabels(act, labels) {
				return act
			}
			continue
		}
		return act
	}
	return nil
}

func hasLabels(u *unstructured.Unstructured, labels map[string]string) bool {
	got := u.GetLabels()
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

// identifier renders a human readable identity for an expected resource. The
// GVK is always present; the name or the matching labels follow when the
// expected resource specifies them.
func identifier(u *unstructured.Unstructured) string {
	id := u.GroupVersionKind().String()

	if name := u.GetName(); name != "" {
		return fmt.Sprintf("%s, Name=%s", id, name)
	}

	if labels := u.GetLabels(); len(labels) > 0 {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %s", k, labels[k]))
		}
		return fmt.Sprintf("%s, Labels=[%s]", id, strings.Join(pairs, ", "))
	}

	return id
}
