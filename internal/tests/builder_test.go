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

package tests

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
)

const compTestManifest = `
apiVersion: meta.dev.upbound.io/v1alpha1
kind: CompositionTest
metadata:
  name: render-bucket
spec:
  timeoutSeconds: 60
  xrPath: xr.yaml
  compositionPath: composition.yaml
`

const e2eTestManifest = `
apiVersion: meta.dev.upbound.io/v1alpha1
kind: E2ETest
metadata:
  name: bucket-e2e
spec:
  manifests:
    - apiVersion: example.org/v1alpha1
      kind: Bucket
      metadata:
        name: test-bucket
`

const invalidCompTestManifest = `
apiVersion: meta.dev.upbound.io/v1alpha1
kind: CompositionTest
metadata:
  name: broken
spec:
  timeoutSeconds: 0
`

func TestBuild(t *testing.T) {
	type args struct {
		files    map[string]string
		patterns []string
	}
	type want struct {
		compositionTests int
		e2eTests         int
		err              error
	}

	cases := map[string]struct {
		reason string
		args   args
		want   want
	}{
		"DiscoversBothKinds": {
			reason: "Composition and e2e test directories should both be discovered.",
			args: args{
				files: map[string]string{
					"test-bucket/main.yaml":    compTestManifest,
					"e2etest-bucket/main.yaml": e2eTestManifest,
				},
				patterns: []string{"tests/"},
			},
			want: want{
				compositionTests: 1,
				e2eTests:         1,
			},
		},
		"IgnoresUnprefixedDirectories": {
			reason: "Directories without a test prefix aren't test directories.",
			args: args{
				files: map[string]string{
					"fixtures/main.yaml":    compTestManifest,
					"test-bucket/main.yaml": compTestManifest,
				},
				patterns: []string{"tests/"},
			},
			want: want{
				compositionTests: 1,
			},
		},
		"PatternSelectsSubset": {
			reason: "A glob pattern should limit discovery to matching directories.",
			args: args{
				files: map[string]string{
					"test-bucket/main.yaml":  compTestManifest,
					"test-network/main.yaml": compTestManifest,
				},
				patterns: []string{"tests/test-bucket"},
			},
			want: want{
				compositionTests: 1,
			},
		},
		"OtherManifestsSkipped": {
			reason: "Manifests of other kinds in a test directory are skipped.",
			args: args{
				files: map[string]string{
					"test-bucket/main.yaml": compTestManifest,
					"test-bucket/xr.yaml": `
apiVersion: example.org/v1alpha1
kind: XBucket
metadata:
  name: test-bucket
`,
				},
				patterns: []string{"tests/"},
			},
			want: want{
				compositionTests: 1,
			},
		},
		"InvalidTestFails": {
			reason: "A test that fails validation aborts the build.",
			args: args{
				files: map[string]string{
					"test-broken/main.yaml": invalidCompTestManifest,
				},
				patterns: []string{"tests/"},
			},
			want: want{
				err: cmpopts.AnyError,
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for f, data := range tc.args.files {
				_ = afero.WriteFile(fs, f, []byte(data), 0o644)
			}

			suite, err := NewBuilder(fs).Build(tc.args.patterns, "tests")

			if diff := cmp.Diff(tc.want.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("%s\nBuild(...): -want error, +got error:\n%s", tc.reason, diff)
			}
			if err != nil {
				return
			}
			if got := len(suite.CompositionTests); got != tc.want.compositionTests {
				t.Errorf("%s\nBuild(...): got %d composition tests, want %d", tc.reason, got, tc.want.compositionTests)
			}
			if got := len(suite.E2ETests); got != tc.want.e2eTests {
				t.Errorf("%s\nBuild(...): got %d e2e tests, want %d", tc.reason, got, tc.want.e2eTests)
			}
		})
	}
}

func TestBuildDefaultsTests(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "test-bucket/main.yaml", []byte(compTestManifest), 0o644)

	suite, err := NewBuilder(fs).Build([]string{"tests/"}, "tests")
	if err != nil {
		t.Fatalf("Build(...): %s", err)
	}
	if len(suite.CompositionTests) != 1 {
		t.Fatalf("Build(...): got %d composition tests, want 1", len(suite.CompositionTests))
	}

	tc := suite.CompositionTests[0]
	if got, want := tc.Name(), "render-bucket"; got != want {
		t.Errorf("Name(): got %q, want %q", got, want)
	}
	if got, want := tc.Dir, "test-bucket"; got != want {
		t.Errorf("Dir: got %q, want %q", got, want)
	}
	if tc.Test.Spec.Validate == nil || *tc.Test.Spec.Validate {
		t.Errorf("Default(): validate should default to false")
	}
}
