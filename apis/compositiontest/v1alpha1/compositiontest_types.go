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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Default values applied to a CompositionTest before it runs.
const (
	// DefaultTimeoutSeconds is the default composition test timeout.
	DefaultTimeoutSeconds = 120
)

// CompositionTest defines the schema for the CompositionTest custom resource.
//
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,shortName=comptest,categories=meta
type CompositionTest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec CompositionTestSpec `json:"spec"`
}

// CompositionTestSpec defines the specification for the CompositionTest
// custom resource. The composition, XR, XRD and functions under test may each
// be supplied inline or as a path relative to the test directory, but not
// both.
//
// +k8s:deepcopy-gen=true
type CompositionTestSpec struct {
	// Timeout for the test in seconds.
	// +kubebuilder:validation:Optional
	// +kubebuilder:validation:Minimum=1
	TimeoutSeconds *int `json:"timeoutSeconds,omitempty"`

	// Validate indicates whether rendered resources should be validated
	// against the XRD's schema.
	// +kubebuilder:validation:Optional
	Validate *bool `json:"validate,omitempty"`

	// XR specifies the composite resource to render inline.
	// +kubebuilder:validation:Optional
	XR runtime.RawExtension `json:"xr,omitempty"`

	// XRPath is the path to a YAML manifest containing the composite
	// resource to render.
	// +kubebuilder:validation:Optional
	XRPath string `json:"xrPath,omitempty"`

	// XRD specifies the composite resource definition inline.
	// +kubebuilder:validation:Optional
	XRD runtime.RawExtension `json:"xrd,omitempty"`

	// XRDPath is the path to a YAML manifest containing the composite
	// resource definition.
	// +kubebuilder:validation:Optional
	XRDPath string `json:"xrdPath,omitempty"`

	// Composition specifies the composition under test inline.
	// +kubebuilder:validation:Optional
	Composition runtime.RawExtension `json:"composition,omitempty"`

	// CompositionPath is the path to a YAML manifest containing the
	// composition under test.
	// +kubebuilder:validation:Optional
	CompositionPath string `json:"compositionPath,omitempty"`

	// Functions specifies the composition functions needed to render the
	// composition, inline.
	// +kubebuilder:validation:Optional
	Functions []runtime.RawExtension `json:"functions,omitempty"`

	// FunctionsPath is the path to a YAML stream of Function manifests
	// needed to render the composition.
	// +kubebuilder:validation:Optional
	FunctionsPath string `json:"functionsPath,omitempty"`

	// ObservedResources specifies resources mocking the observed state of
	// the composed resources.
	// +kubebuilder:validation:Optional
	ObservedResources []runtime.RawExtension `json:"observedResources,omitempty"`

	// ExtraResources specifies additional resources the function pipeline
	// may request.
	// +kubebuilder:validation:Optional
	ExtraResources []runtime.RawExtension `json:"extraResources,omitempty"`

	// Context specifies context values for the function pipeline.
	// +kubebuilder:validation:Optional
	Context []runtime.RawExtension `json:"context,omitempty"`

	// AssertResources defines resources that must appear, as a subset, in
	// the rendered output.
	// +kubebuilder:validation:Optional
	AssertResources []runtime.RawExtension `json:"assertResources,omitempty"`
}

// Default fills in default field values. It's a no-op for fields the author
// has set.
func (c *CompositionTest) Default() {
	if c.Spec.TimeoutSeconds == nil {
		t := DefaultTimeoutSeconds
		c.Spec.TimeoutSeconds = &t
	}
	if c.Spec.Validate == nil {
		v := false
		c.Spec.Validate = &v
	}
	if c.Spec.AssertResources == nil {
		c.Spec.AssertResources = []runtime.RawExtension{}
	}
}
