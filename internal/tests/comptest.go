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
	"context"
	"encoding/json"
	"io"
	"path"
	"time"

	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composed"
	ucomposite "github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composite"

	apiextensionsv1 "github.com/crossplane/crossplane/apis/apiextensions/v1"
	pkgv1 "github.com/crossplane/crossplane/apis/pkg/v1"

	"github.com/upbound/xptest/internal/assert"
	"github.com/upbound/xptest/internal/render"
	"github.com/upbound/xptest/internal/validate"
)

// Name returns the name the composition test is reported under.
func (tc CompositionTestCase) Name() string {
	if n := tc.Test.GetName(); n != "" {
		return n
	}
	return tc.Dir
}

// RunCompositionTest renders the test's composite resource through its
// composition's function pipeline, asserts the expected resources against the
// output, and optionally validates the output against the XRD's schema. It
// needs no cluster. Human-readable assertion and validation results are
// written to w.
func RunCompositionTest(ctx context.Context, log logging.Logger, fs afero.Fs, tc CompositionTestCase, w io.Writer) error {
	spec := tc.Test.Spec

	ctx, cancel := context.WithTimeout(ctx, time.Duration(*spec.TimeoutSeconds)*time.Second)
	defer cancel()

	xr, err := loadXR(fs, tc)
	if err != nil {
		return err
	}

	comp, err := loadComposition(fs, tc)
	if err != nil {
		return err
	}

	fns, err := loadFunctions(fs, tc)
	if err != nil {
		return err
	}

	observed := make([]composed.Unstructured, 0, len(spec.ObservedResources))
	for i, raw := range spec.ObservedResources {
		cd := composed.New()
		if err := yaml.Unmarshal(raw.Raw, &cd.Object); err != nil {
			return errors.Wrapf(err, "cannot parse observed resource %d", i)
		}
		observed = append(observed, *cd)
	}

	extra := make([]unstructured.Unstructured, 0, len(spec.ExtraResources))
	for i, raw := range spec.ExtraResources {
		u := unstructured.Unstructured{}
		if err := yaml.Unmarshal(raw.Raw, &u.Object); err != nil {
			return errors.Wrapf(err, "cannot parse extra resource %d", i)
		}
		extra = append(extra, u)
	}

	fctx, err := loadContext(spec.Context)
	if err != nil {
		return err
	}

	out, err := render.Render(ctx, log, render.Inputs{
		CompositeResource: xr,
		Composition:       comp,
		Functions:         fns,
		ObservedResources: observed,
		ExtraResources:    extra,
		Context:           fctx,
	})
	if err != nil {
		return errors.Wrap(err, "cannot render composite resource")
	}

	actual := make([]*unstructured.Unstructured, 0, len(out.ComposedResources)+1)
	actual = append(actual, &out.CompositeResource.Unstructured)
	for i := range out.ComposedResources {
		actual = append(actual, &out.ComposedResources[i].Unstructured)
	}

	if len(spec.AssertResources) > 0 {
		expected := make([]*unstructured.Unstructured, 0, len(spec.AssertResources))
		for i, raw := range spec.AssertResources {
			u := &unstructured.Unstructured{}
			if err := yaml.Unmarshal(raw.Raw, &u.Object); err != nil {
				return errors.Wrapf(err, "cannot parse assert resource %d", i)
			}
			expected = append(expected, u)
		}

		if err := assert.Assert(expected, actual, false, w); err != nil {
			return err
		}
	}

	if spec.Validate != nil && *spec.Validate {
		xrd, err := loadXRD(fs, tc)
		if err != nil {
			return err
		}
		if xrd == nil {
			return errors.New("cannot validate rendered resources without an XRD")
		}
		if err := validate.SchemaValidation(actual, []*unstructured.Unstructured{xrd}, false, w); err != nil {
			return err
		}
	}

	return nil
}

func loadXR(fs afero.Fs, tc CompositionTestCase) (*ucomposite.Unstructured, error) {
	if tc.Test.Spec.XRPath != "" {
		return render.LoadCompositeResource(fs, path.Join(tc.Dir, tc.Test.Spec.XRPath))
	}
	if tc.Test.Spec.XR.Raw == nil {
		return nil, errors.Errorf("composition test %q specifies no composite resource to render", tc.Name())
	}
	xr := ucomposite.New()
	if err := yaml.Unmarshal(tc.Test.Spec.XR.Raw, &xr.Object); err != nil {
		return nil, errors.Wrap(err, "cannot parse composite resource")
	}
	return xr, nil
}

func loadComposition(fs afero.Fs, tc CompositionTestCase) (*apiextensionsv1.Composition, error) {
	if tc.Test.Spec.CompositionPath != "" {
		return render.LoadComposition(fs, path.Join(tc.Dir, tc.Test.Spec.CompositionPath))
	}
	if tc.Test.Spec.Composition.Raw == nil {
		return nil, errors.Errorf("composition test %q specifies no composition to render with", tc.Name())
	}
	comp := &apiextensionsv1.Composition{}
	if err := yaml.Unmarshal(tc.Test.Spec.Composition.Raw, comp); err != nil {
		return nil, errors.Wrap(err, "cannot parse composition")
	}
	return comp, nil
}

func loadFunctions(fs afero.Fs, tc CompositionTestCase) ([]pkgv1.Function, error) {
	if tc.Test.Spec.FunctionsPath != "" {
		return render.LoadFunctions(fs, path.Join(tc.Dir, tc.Test.Spec.FunctionsPath))
	}
	fns := make([]pkgv1.Function, 0, len(tc.Test.Spec.Functions))
	for i, raw := range tc.Test.Spec.Functions {
		fn := pkgv1.Function{}
		if err := yaml.Unmarshal(raw.Raw, &fn); err != nil {
			return nil, errors.Wrapf(err, "cannot parse function %d", i)
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func loadXRD(fs afero.Fs, tc CompositionTestCase) (*unstructured.Unstructured, error) {
	if tc.Test.Spec.XRDPath != "" {
		stream, err := render.LoadYAMLStreamFromFile(fs, path.Join(tc.Dir, tc.Test.Spec.XRDPath))
		if err != nil {
			return nil, errors.Wrap(err, "cannot load XRD")
		}
		if len(stream) == 0 {
			return nil, errors.Errorf("no XRD found in %q", tc.Test.Spec.XRDPath)
		}
		u := &unstructured.Unstructured{}
		if err := yaml.Unmarshal(stream[0], &u.Object); err != nil {
			return nil, errors.Wrap(err, "cannot parse XRD")
		}
		return u, nil
	}
	if tc.Test.Spec.XRD.Raw == nil {
		return nil, nil
	}
	u := &unstructured.Unstructured{}
	if err := yaml.Unmarshal(tc.Test.Spec.XRD.Raw, &u.Object); err != nil {
		return nil, errors.Wrap(err, "cannot parse XRD")
	}
	return u, nil
}

// loadContext merges the supplied context entries into per-key JSON values
// for the function pipeline.
func loadContext(entries []runtime.RawExtension) (map[string][]byte, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := map[string][]byte{}
	for i, raw := range entries {
		kv := map[string]any{}
		if err := yaml.Unmarshal(raw.Raw, &kv); err != nil {
			return nil, errors.Wrapf(err, "cannot parse context entry %d", i)
		}
		for k, v := range kv {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot marshal context value for key %q", k)
			}
			out[k] = data
		}
	}
	return out, nil
}
