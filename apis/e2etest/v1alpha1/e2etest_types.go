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
	"k8s.io/utils/ptr"
)

// Default values applied to an E2ETest before it runs.
const (
	// DefaultTimeoutSeconds is the default end to end test timeout. E2E tests
	// provision real infrastructure, which can take a long time to become
	// ready.
	DefaultTimeoutSeconds = 4500

	// DefaultCondition is the condition each manifest must report as true
	// before the test passes, unless the test specifies its own.
	DefaultCondition = "Ready"
)

// CrossplaneUpgradeChannel is the channel Crossplane auto upgrades follow in
// the test environment.
type CrossplaneUpgradeChannel string

const (
	// CrossplaneUpgradeNone disables auto upgrades.
	CrossplaneUpgradeNone CrossplaneUpgradeChannel = "None"

	// CrossplaneUpgradePatch upgrades to the latest patch release of the
	// current minor version.
	CrossplaneUpgradePatch CrossplaneUpgradeChannel = "Patch"

	// CrossplaneUpgradeStable upgrades to the latest stable release.
	CrossplaneUpgradeStable CrossplaneUpgradeChannel = "Stable"

	// CrossplaneUpgradeRapid upgrades to the latest release, including
	// pre-releases.
	CrossplaneUpgradeRapid CrossplaneUpgradeChannel = "Rapid"
)

// E2ETest defines the schema for the E2ETest custom resource.
//
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,shortName=e2e,categories=meta
type E2ETest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec E2ETestSpec `json:"spec"`
}

// E2ETestSpec defines the specification for the E2ETest custom resource.
//
// +k8s:deepcopy-gen=true
type E2ETestSpec struct {
	// Crossplane configures the Crossplane installation of the test
	// environment.
	// +kubebuilder:validation:Optional
	Crossplane *CrossplaneSpec `json:"crossplane,omitempty"`

	// Manifests specifies the resources to apply and watch for the configured
	// conditions.
	// +kubebuilder:validation:Optional
	Manifests []runtime.RawExtension `json:"manifests,omitempty"`

	// ExtraResources specifies additional resources to apply before the
	// manifests, without waiting for conditions on them.
	// +kubebuilder:validation:Optional
	ExtraResources []runtime.RawExtension `json:"extraResources,omitempty"`

	// DefaultConditions are the conditions each manifest must report as true
	// for the test to pass.
	// +kubebuilder:validation:Optional
	DefaultConditions []string `json:"defaultConditions,omitempty"`

	// Timeout for the test in seconds.
	// +kubebuilder:validation:Optional
	// +kubebuilder:validation:Minimum=1
	TimeoutSeconds *int `json:"timeoutSeconds,omitempty"`

	// SkipDelete indicates whether the applied resources should be left in
	// place after the test finishes.
	// +kubebuilder:validation:Optional
	SkipDelete *bool `json:"skipDelete,omitempty"`
}

// CrossplaneSpec configures the Crossplane installation of the test
// environment.
//
// +k8s:deepcopy-gen=true
type CrossplaneSpec struct {
	// AutoUpgradeSpec configures Crossplane auto upgrades.
	// +kubebuilder:validation:Optional
	AutoUpgradeSpec *CrossplaneAutoUpgradeSpec `json:"autoUpgrade,omitempty"`
}

// CrossplaneAutoUpgradeSpec configures Crossplane auto upgrades.
//
// +k8s:deepcopy-gen=true
type CrossplaneAutoUpgradeSpec struct {
	// Channel the upgrades follow.
	// +kubebuilder:validation:Optional
	// +kubebuilder:validation:Enum=None;Patch;Stable;Rapid
	Channel *CrossplaneUpgradeChannel `json:"channel,omitempty"`
}

// Default fills in default field values. It's a no-op for fields the author
// has set.
func (e *E2ETest) Default() {
	if e.Spec.TimeoutSeconds == nil {
		t := DefaultTimeoutSeconds
		e.Spec.TimeoutSeconds = &t
	}
	if e.Spec.SkipDelete == nil {
		s := false
		e.Spec.SkipDelete = &s
	}
	if e.Spec.DefaultConditions == nil {
		e.Spec.DefaultConditions = []string{DefaultCondition}
	}
	if e.Spec.Crossplane == nil {
		e.Spec.Crossplane = &CrossplaneSpec{}
	}
	if e.Spec.Crossplane.AutoUpgradeSpec == nil {
		e.Spec.Crossplane.AutoUpgradeSpec = &CrossplaneAutoUpgradeSpec{}
	}
	if e.Spec.Crossplane.AutoUpgradeSpec.Channel == nil {
		e.Spec.Crossplane.AutoUpgradeSpec.Channel = ptr.To(CrossplaneUpgradeRapid)
	}
}
