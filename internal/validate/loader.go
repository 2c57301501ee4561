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

package validate

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// A Loader loads Kubernetes manifests from an input source.
type Loader interface {
	Load() ([]*unstructured.Unstructured, error)
}

// NewLoader returns a Loader for the given input source. The input may be a
// file, a directory of YAML files, or "-" for standard input.
func NewLoader(fs afero.Fs, input string) (Loader, error) {
	if input == "-" {
		return &StdinLoader{}, nil
	}

	fi, err := fs.Stat(input)
	if err != nil {
		return nil, errors.Wrap(err, "cannot stat input source")
	}

	if fi.IsDir() {
		return &FolderLoader{fs: fs, path: input}, nil
	}

	return &FileLoader{fs: fs, path: input}, nil
}

// StdinLoader loads manifests from standard input.
type StdinLoader struct{}

// Load reads a YAML stream from stdin.
func (s *StdinLoader) Load() ([]*unstructured.Unstructured, error) {
	stream, err := load(os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load YAML stream from stdin")
	}

	return streamToUnstructured(stream)
}

// FileLoader loads manifests from a single YAML file.
type FileLoader struct {
	fs   afero.Fs
	path string
}

// Load reads a YAML stream from a file.
func (f *FileLoader) Load() ([]*unstructured.Unstructured, error) {
	stream, err := readFile(f.fs, f.path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read file")
	}

	return streamToUnstructured(stream)
}

// FolderLoader loads manifests from every YAML file in a directory tree.
type FolderLoader struct {
	fs   afero.Fs
	path string
}

// Load reads YAML streams from all files in a folder.
func (f *FolderLoader) Load() ([]*unstructured.Unstructured, error) {
	var stream [][]byte
	err := afero.Walk(f.fs, f.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if isYamlFile(info) {
			s, err := readFile(f.fs, path)
			if err != nil {
				return err
			}

			stream = append(stream, s...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot read folder")
	}

	return streamToUnstructured(stream)
}

func isYamlFile(info os.FileInfo) bool {
	return !info.IsDir() && (filepath.Ext(info.Name()) == ".yaml" || filepath.Ext(info.Name()) == ".yml")
}

func readFile(fs afero.Fs, path string) ([][]byte, error) {
	f, err := fs.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "cannot open file")
	}
	defer f.Close() //nolint:errcheck // Only open for reading.

	return load(f)
}

func load(r io.Reader) ([][]byte, error) {
	stream := make([][]byte, 0)

	yr := yaml.NewYAMLReader(bufio.NewReader(r))

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
		stream = append(stream, bytes)
	}

	return stream, nil
}

func streamToUnstructured(stream [][]byte) ([]*unstructured.Unstructured, error) {
	manifests := make([]*unstructured.Unstructured, 0, len(stream))

	for _, y := range stream {
		u := &unstructured.Unstructured{}
		if err := yaml.Unmarshal(y, u); err != nil {
			return nil, errors.Wrap(err, "cannot parse YAML manifest")
		}
		manifests = append(manifests, u)
	}

	return manifests, nil
}
