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

// Package project deals with the optional project file that describes the
// layout of a test project.
package project

import (
	"path/filepath"

	"github.com/spf13/afero"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// DefaultTestsPath is used when the project file doesn't configure a tests
// directory, or there is no project file at all.
const DefaultTestsPath = "tests"

// Project describes a test project. It is not a Kubernetes resource, but it
// follows Kubernetes resource conventions so it is familiar to author.
type Project struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec *Spec `json:"spec,omitempty"`
}

// Spec is the spec for a Project. Since a Project is not a Kubernetes
// resource there is no Status, only Spec.
type Spec struct {
	Paths *Paths `json:"paths,omitempty"`
}

// Paths configures the locations of various parts of the project.
type Paths struct {
	// Tests is the directory holding the project's tests. If not specified,
	// it defaults to `tests/`.
	Tests string `json:"tests,omitempty"`
}

// Default fills in default values for any paths the project file doesn't
// configure.
func (p *Project) Default() {
	if p.Spec == nil {
		p.Spec = &Spec{}
	}
	if p.Spec.Paths == nil {
		p.Spec.Paths = &Paths{}
	}
	if p.Spec.Paths.Tests == "" {
		p.Spec.Paths.Tests = DefaultTestsPath
	}
}

// Validate the project file.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Spec != nil && p.Spec.Paths != nil && p.Spec.Paths.Tests != "" && filepath.IsAbs(p.Spec.Paths.Tests) {
		return errors.New("tests path must be relative to the project directory")
	}
	return nil
}

// Parse parses and validates the project file. If the file doesn't exist a
// default project is returned, since the project file is optional.
func Parse(fs afero.Fs, file string) (*Project, error) {
	data, err := afero.ReadFile(fs, file)
	switch {
	case errors.Is(err, afero.ErrFileNotFound):
		p := &Project{}
		p.Default()
		return p, nil
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read project file %q", file)
	}

	p := &Project{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "failed to parse project file")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid project file")
	}
	p.Default()
	return p, nil
}
