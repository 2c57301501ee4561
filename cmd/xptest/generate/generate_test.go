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

package generate

import (
	"testing"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	compositiontest "github.com/upbound/xptest/apis/compositiontest/v1alpha1"
	e2etest "github.com/upbound/xptest/apis/e2etest/v1alpha1"
)

func TestGenerateCompositionTest(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := &Cmd{
		Name:     "xstoragebucket",
		projFS:   fs,
		testName: "test-xstoragebucket",
		testDir:  "tests/test-xstoragebucket",
	}

	if err := c.Generate(); err != nil {
		t.Fatalf("Generate(): %s", err)
	}

	data, err := afero.ReadFile(fs, "tests/test-xstoragebucket/main.yaml")
	if err != nil {
		t.Fatalf("ReadFile(): %s", err)
	}

	ct := &compositiontest.CompositionTest{}
	if err := yaml.Unmarshal(data, ct); err != nil {
		t.Fatalf("Unmarshal(): %s", err)
	}

	if got, want := ct.GetName(), "test-xstoragebucket"; got != want {
		t.Errorf("name: got %q, want %q", got, want)
	}
	if ct.Spec.TimeoutSeconds == nil || *ct.Spec.TimeoutSeconds != compositiontest.DefaultTimeoutSeconds {
		t.Errorf("timeoutSeconds: got %v, want %d", ct.Spec.TimeoutSeconds, compositiontest.DefaultTimeoutSeconds)
	}
	if ct.Spec.Validate == nil || *ct.Spec.Validate {
		t.Errorf("validate: got %v, want false", ct.Spec.Validate)
	}

	ct.Default()
	if err := ct.Validate(); err != nil {
		t.Errorf("Validate(): generated scaffold is invalid: %s", err)
	}
}

func TestGenerateE2ETest(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := &Cmd{
		Name:     "xstoragebucket",
		E2E:      true,
		projFS:   fs,
		testName: "e2etest-xstoragebucket",
		testDir:  "tests/e2etest-xstoragebucket",
	}

	if err := c.Generate(); err != nil {
		t.Fatalf("Generate(): %s", err)
	}

	data, err := afero.ReadFile(fs, "tests/e2etest-xstoragebucket/main.yaml")
	if err != nil {
		t.Fatalf("ReadFile(): %s", err)
	}

	et := &e2etest.E2ETest{}
	if err := yaml.Unmarshal(data, et); err != nil {
		t.Fatalf("Unmarshal(): %s", err)
	}

	if got, want := et.GetName(), "e2etest-xstoragebucket"; got != want {
		t.Errorf("name: got %q, want %q", got, want)
	}
	if et.Spec.TimeoutSeconds == nil || *et.Spec.TimeoutSeconds != e2etest.DefaultTimeoutSeconds {
		t.Errorf("timeoutSeconds: got %v, want %d", et.Spec.TimeoutSeconds, e2etest.DefaultTimeoutSeconds)
	}
	if et.Spec.Crossplane == nil || et.Spec.Crossplane.AutoUpgradeSpec == nil ||
		et.Spec.Crossplane.AutoUpgradeSpec.Channel == nil ||
		*et.Spec.Crossplane.AutoUpgradeSpec.Channel != e2etest.CrossplaneUpgradeRapid {
		t.Errorf("crossplane.autoUpgrade.channel: got %+v, want Rapid", et.Spec.Crossplane)
	}

	et.Default()
	if err := et.Validate(); err != nil {
		t.Errorf("Validate(): generated scaffold is invalid: %s", err)
	}
}
