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

package render

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composed"
	"github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composite"

	apiextensionsv1 "github.com/crossplane/crossplane/apis/apiextensions/v1"
	pkgv1 "github.com/crossplane/crossplane/apis/pkg/v1"
)

// LoadCompositeResource from a YAML manifest.
func LoadCompositeResource(fs afero.Fs, file string) (*composite.Unstructured, error) {
	y, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read composite resource file")
	}
	xr := composite.New()
	return xr, errors.Wrap(yaml.Unmarshal(y, xr), "cannot unmarshal composite resource YAML")
}

// LoadComposition from a YAML manifest.
func LoadComposition(fs afero.Fs, file string) (*apiextensionsv1.Composition, error) {
	y, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read composition file")
	}
	comp := &apiextensionsv1.Composition{}
	return comp, errors.Wrap(yaml.Unmarshal(y, comp), "cannot unmarshal composition YAML")
}

// LoadFunctions from a stream of YAML manifests.
func LoadFunctions(fs afero.Fs, file string) ([]pkgv1.Function, error) {
	stream, err := LoadYAMLStream(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load YAML stream from file")
	}

	functions := make([]pkgv1.Function, 0, len(stream))
	for _, y := range stream {
		f := &pkgv1.Function{}
		if err := yaml.Unmarshal(y, f); err != nil {
			return nil, errors.Wrap(err, "cannot parse YAML Function manifest")
		}
		functions = append(functions, *f)
	}

	return functions, nil
}

// LoadObservedResources from a stream of YAML manifests.
func LoadObservedResources(fs afero.Fs, file string) ([]composed.Unstructured, error) {
	stream, err := LoadYAMLStream(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load YAML stream from file")
	}

	observed := make([]composed.Unstructured, 0, len(stream))
	for _, y := range stream {
		cd := composed.New()
		if err := yaml.Unmarshal(y, cd); err != nil {
			return nil, errors.Wrap(err, "cannot parse YAML composed resource manifest")
		}
		observed = append(observed, *cd)
	}

	return observed, nil
}

// LoadExtraResources from a stream of YAML manifests.
func LoadExtraResources(fs afero.Fs, file string) ([]unstructured.Unstructured, error) {
	stream, err := LoadYAMLStream(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load YAML stream from file")
	}

	extra := make([]unstructured.Unstructured, 0, len(stream))
	for _, y := range stream {
		u := &unstructured.Unstructured{}
		if err := yaml.Unmarshal(y, u); err != nil {
			return nil, errors.Wrap(err, "cannot parse YAML extra resource manifest")
		}
		extra = append(extra, *u)
	}

	return extra, nil
}

// LoadYAMLStream from the supplied file or directory. Returns an array of byte
// arrays, where each byte array is expected to be a YAML manifest.
func LoadYAMLStream(fs afero.Fs, fileOrDir string) ([][]byte, error) {
	var files []string
	info, err := fs.Stat(fileOrDir)
	if err != nil {
		return nil, errors.Wrap(err, "cannot stat file")
	}
	if !info.IsDir() {
		files = append(files, fileOrDir)
	} else {
		err := afero.Walk(fs, fileOrDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if ext := filepath.Ext(info.Name()); ext == ".yaml" || ext == ".yml" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "cannot walk YAML files")
		}
		if len(files) == 0 {
			return nil, errors.Errorf("no YAML files found in %q (.yaml or .yml)", fileOrDir)
		}
	}

	out := make([][]byte, 0)
	for i := range files {
		o, err := LoadYAMLStreamFromFile(fs, files[i])
		if err != nil {
			return nil, errors.Wrap(err, "cannot load YAML stream from file")
		}
		out = append(out, o...)
	}

	return out, nil
}

// LoadYAMLStreamFromFile from the supplied file. Returns an array of byte
// arrays, where each byte array is expected to be a YAML manifest.
func LoadYAMLStreamFromFile(fs afero.Fs, file string) ([][]byte, error) {
	out := make([][]byte, 0)
	f, err := fs.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open file")
	}
	defer f.Close() //nolint:errcheck // Only open for reading.
	yr := yaml.NewYAMLReader(bufio.NewReader(f))

	for {
		bytes, err := yr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "cannot parse YAML stream")
		}
		if len(bytes) == 0 {
			continue
		}
		out = append(out, bytes)
	}
	return out, nil
}
