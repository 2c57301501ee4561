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

// Package tests discovers and runs composition and end-to-end tests.
package tests

import (
	"strings"

	"github.com/spf13/afero"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	compositiontest "github.com/upbound/xptest/apis/compositiontest/v1alpha1"
	e2etest "github.com/upbound/xptest/apis/e2etest/v1alpha1"
	"github.com/upbound/xptest/internal/render"
)

// Test directories are identified by the prefix of their name.
const (
	CompositionTestPrefix = "test-"
	E2ETestPrefix         = "e2etest-"
)

// A CompositionTestCase is a composition test together with the directory it
// was discovered in. Paths in the test spec are relative to that directory.
type CompositionTestCase struct {
	Test *compositiontest.CompositionTest
	Dir  string
}

// An E2ETestCase is an end-to-end test together with the directory it was
// discovered in.
type E2ETestCase struct {
	Test *e2etest.E2ETest
	Dir  string
}

// A Suite is the set of tests discovered under a tests root.
type Suite struct {
	CompositionTests []CompositionTestCase
	E2ETests         []E2ETestCase
}

// A Builder discovers test directories and parses their manifests into typed
// tests.
type Builder struct {
	fs afero.Fs
}

// NewBuilder returns a Builder that discovers tests on the supplied
// filesystem, which must be rooted at the tests directory.
func NewBuilder(fs afero.Fs) *Builder {
	return &Builder{fs: fs}
}

// Build discovers test directories matching the supplied glob patterns and
// parses each directory's YAML manifests into typed tests. Tests are
// defaulted and validated as they are parsed. Patterns are relative to the
// tests root; a pattern naming the tests root itself matches all test
// directories in it.
func (b *Builder) Build(patterns []string, testsFolder string) (*Suite, error) {
	dirs, err := discoverTestDirectories(b.fs, patterns, testsFolder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover test directories")
	}

	suite := &Suite{}
	for _, dir := range dirs {
		stream, err := render.LoadYAMLStream(b.fs, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load test manifests in %q", dir)
		}

		for _, data := range stream {
			tm := metav1.TypeMeta{}
			if err := yaml.Unmarshal(data, &tm); err != nil {
				return nil, errors.Wrapf(err, "failed to parse test manifest in %q", dir)
			}

			switch tm.Kind {
			case compositiontest.CompositionTestKind:
				ct := &compositiontest.CompositionTest{}
				if err := yaml.Unmarshal(data, ct); err != nil {
					return nil, errors.Wrapf(err, "failed to parse composition test in %q", dir)
				}
				ct.Default()
				if err := ct.Validate(); err != nil {
					return nil, errors.Wrapf(err, "invalid composition test %q in %q", ct.GetName(), dir)
				}
				suite.CompositionTests = append(suite.CompositionTests, CompositionTestCase{Test: ct, Dir: dir})
			case e2etest.E2ETestKind:
				et := &e2etest.E2ETest{}
				if err := yaml.Unmarshal(data, et); err != nil {
					return nil, errors.Wrapf(err, "failed to parse e2e test in %q", dir)
				}
				et.Default()
				if err := et.Validate(); err != nil {
					return nil, errors.Wrapf(err, "invalid e2e test %q in %q", et.GetName(), dir)
				}
				suite.E2ETests = append(suite.E2ETests, E2ETestCase{Test: et, Dir: dir})
			default:
				// Test directories may carry other manifests, e.g. the
				// resources a test references by path.
				continue
			}
		}
	}

	return suite, nil
}

// discoverTestDirectories returns the directories matching the supplied
// patterns whose names mark them as test directories.
func discoverTestDirectories(fs afero.Fs, patterns []string, testsFolder string) ([]string, error) {
	cleaned := make([]string, len(patterns))
	for i, pattern := range patterns {
		trimmed := strings.TrimPrefix(pattern, testsFolder)
		trimmed = strings.TrimPrefix(trimmed, "/")
		if trimmed == "" {
			// Match all test directories if the pattern was the tests root.
			trimmed = "*"
		}
		cleaned[i] = trimmed
	}

	var dirs []string
	seen := map[string]bool{}
	for _, pattern := range cleaned {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			name := match[strings.LastIndex(match, "/")+1:]
			if !strings.HasPrefix(name, CompositionTestPrefix) && !strings.HasPrefix(name, E2ETestPrefix) {
				continue
			}
			isDir, err := afero.IsDir(fs, match)
			if err != nil {
				return nil, err
			}
			if isDir && !seen[match] {
				seen[match] = true
				dirs = append(dirs, match)
			}
		}
	}

	return dirs, nil
}
