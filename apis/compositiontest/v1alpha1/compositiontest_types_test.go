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

package v1alpha1

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"
)

func TestDefault(t *testing.T) {
	cases := map[string]struct {
		reason string
		test   CompositionTest
		want   CompositionTestSpec
	}{
		"EmptySpec": {
			reason: "Defaults are applied to an empty spec.",
			test:   CompositionTest{},
			want: CompositionTestSpec{
				TimeoutSeconds:  ptr.To(DefaultTimeoutSeconds),
				Validate:        ptr.To(false),
				AssertResources: []runtime.RawExtension{},
			},
		},
		"ExplicitValues": {
			reason: "Explicitly set values are preserved.",
			test: CompositionTest{
				Spec: CompositionTestSpec{
					TimeoutSeconds: ptr.To(30),
					Validate:       ptr.To(true),
				},
			},
			want: CompositionTestSpec{
				TimeoutSeconds:  ptr.To(30),
				Validate:        ptr.To(true),
				AssertResources: []runtime.RawExtension{},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.test.Default()
			if diff := cmp.Diff(tc.want, tc.test.Spec); diff != "" {
				t.Errorf("%s\nDefault(): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestUnmarshalYAML(t *testing.T) {
	y := []byte(`apiVersion: meta.dev.upbound.io/v1alpha1
kind: CompositionTest
metadata:
  name: test-example
spec:
  timeoutSeconds: 60
  validate: true
  xrPath: resources/xr.yaml
  compositionPath: resources/composition.yaml
  assertResources:
  - apiVersion: example.org/v1
    kind: XStorageBucket
    metadata:
      name: example
`)

	var ct CompositionTest
	if err := yaml.Unmarshal(y, &ct); err != nil {
		t.Fatalf("yaml.Unmarshal(...): %v", err)
	}

	if ct.Kind != CompositionTestKind {
		t.Errorf("kind: want %q, got %q", CompositionTestKind, ct.Kind)
	}
	if ct.Spec.TimeoutSeconds == nil || *ct.Spec.TimeoutSeconds != 60 {
		t.Errorf("spec.timeoutSeconds: want 60, got %v", ct.Spec.TimeoutSeconds)
	}
	if ct.Spec.Validate == nil || !*ct.Spec.Validate {
		t.Errorf("spec.validate: want true, got %v", ct.Spec.Validate)
	}
	if ct.Spec.XRPath != "resources/xr.yaml" {
		t.Errorf("spec.xrPath: want %q, got %q", "resources/xr.yaml", ct.Spec.XRPath)
	}
	if len(ct.Spec.AssertResources) != 1 {
		t.Errorf("spec.assertResources: want 1 entry, got %d", len(ct.Spec.AssertResources))
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	in := CompositionTest{
		TypeMeta: metav1.TypeMeta{
			APIVersion: SchemeGroupVersion.String(),
			Kind:       CompositionTestKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "test-example",
		},
		Spec: CompositionTestSpec{
			TimeoutSeconds:  ptr.To(60),
			Validate:        ptr.To(true),
			XRPath:          "resources/xr.yaml",
			XRDPath:         "resources/xrd.yaml",
			CompositionPath: "resources/composition.yaml",
			FunctionsPath:   "resources/functions.yaml",
			ObservedResources: []runtime.RawExtension{
				{Raw: []byte(`{"apiVersion":"example.org/v1","kind":"Bucket","metadata":{"name":"observed"}}`)},
			},
			ExtraResources: []runtime.RawExtension{
				{Raw: []byte(`{"apiVersion":"example.org/v1","kind":"Config","metadata":{"name":"extra"}}`)},
			},
			Context: []runtime.RawExtension{
				{Raw: []byte(`{"apiextensions.crossplane.io/environment":{"region":"eu-west-1"}}`)},
			},
			AssertResources: []runtime.RawExtension{
				{Raw: []byte(`{"apiVersion":"example.org/v1","kind":"XStorageBucket","metadata":{"name":"example"}}`)},
			},
		},
	}

	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("yaml.Marshal(...): %v", err)
	}

	var out CompositionTest
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("yaml.Unmarshal(...): %v", err)
	}

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("marshal then unmarshal: -want, +got:\n%s", diff)
	}
}
