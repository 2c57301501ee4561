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
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	runtimeunstructured "github.com/crossplane/crossplane-runtime/pkg/resource/unstructured"
	"github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composed"
	ucomposite "github.com/crossplane/crossplane-runtime/pkg/resource/unstructured/composite"

	fnv1 "github.com/crossplane/crossplane/apis/apiextensions/fn/proto/v1"
	fnv1beta1 "github.com/crossplane/crossplane/apis/apiextensions/fn/proto/v1beta1"
)

// AsStruct converts the supplied object to a protocol buffer Struct well-known
// type.
func AsStruct(o runtime.Object) (*structpb.Struct, error) {
	// If the supplied object is *Unstructured we don't need to round-trip.
	if u, ok := o.(*unstructured.Unstructured); ok {
		s, err := structpb.NewStruct(u.Object)
		return s, errors.Wrap(err, "cannot create protobuf Struct")
	}

	// If the supplied object wraps *Unstructured we don't need to round-trip.
	if w, ok := o.(runtimeunstructured.Wrapper); ok {
		s, err := structpb.NewStruct(w.GetUnstructured().Object)
		return s, errors.Wrap(err, "cannot create protobuf Struct")
	}

	// Fall back to a JSON round-trip.
	b, err := json.Marshal(o)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal object to JSON")
	}

	s := &structpb.Struct{}

	return s, errors.Wrap(s.UnmarshalJSON(b), "cannot unmarshal object from JSON")
}

// FromStruct populates the supplied object with content loaded from the Struct.
func FromStruct(o runtime.Object, s *structpb.Struct) error {
	// If the supplied object is *Unstructured we don't need to round-trip.
	if u, ok := o.(*unstructured.Unstructured); ok {
		u.Object = s.AsMap()
		return nil
	}

	// If the supplied object wraps *Unstructured we don't need to round-trip.
	if w, ok := o.(runtimeunstructured.Wrapper); ok {
		w.GetUnstructured().Object = s.AsMap()
		return nil
	}

	// Fall back to a JSON round-trip.
	b, err := protojson.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "cannot marshal protobuf Struct to JSON")
	}

	return errors.Wrap(json.Unmarshal(b, o), "cannot unmarshal JSON to object")
}

// AsState builds the observed state for a RunFunctionRequest from the supplied
// composite resource and observed composed resources, keyed by composition
// resource name.
func AsState(xr *ucomposite.Unstructured, observed map[string]*composed.Unstructured) (*fnv1.State, error) {
	r, err := AsStruct(xr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode composite resource")
	}

	oxr := &fnv1.Resource{Resource: r}

	ocds := map[string]*fnv1.Resource{}
	for name, cd := range observed {
		r, err := AsStruct(cd)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode composed resource %q", name)
		}

		ocds[name] = &fnv1.Resource{Resource: r}
	}

	return &fnv1.State{Composite: oxr, Resources: ocds}, nil
}

// A fallBackFunctionRunnerServiceClient tries to run a function using the
// v1 FunctionRunnerService. If the function doesn't implement v1 it falls
// back to v1beta1, which is wire compatible with v1.
type fallBackFunctionRunnerServiceClient struct {
	conn *grpc.ClientConn
}

func newFallBackFunctionRunnerServiceClient(conn *grpc.ClientConn) *fallBackFunctionRunnerServiceClient {
	return &fallBackFunctionRunnerServiceClient{conn: conn}
}

func (c *fallBackFunctionRunnerServiceClient) RunFunction(ctx context.Context, req *fnv1.RunFunctionRequest) (*fnv1.RunFunctionResponse, error) {
	rsp, err := fnv1.NewFunctionRunnerServiceClient(c.conn).RunFunction(ctx, req)
	if status.Code(err) != codes.Unimplemented {
		return rsp, err
	}

	b, err := proto.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal v1 RunFunctionRequest")
	}

	breq := &fnv1beta1.RunFunctionRequest{}
	if err := proto.Unmarshal(b, breq); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal v1 RunFunctionRequest to v1beta1")
	}

	brsp, err := fnv1beta1.NewFunctionRunnerServiceClient(c.conn).RunFunction(ctx, breq)
	if err != nil {
		return nil, err
	}

	b, err = proto.Marshal(brsp)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal v1beta1 RunFunctionResponse")
	}

	rsp = &fnv1.RunFunctionResponse{}
	return rsp, errors.Wrap(proto.Unmarshal(b, rsp), "cannot unmarshal v1beta1 RunFunctionResponse to v1")
}

// An ExtraResourcesFetcher resolves the extra resource selectors functions
// return in their requirements.
type ExtraResourcesFetcher interface {
	Fetch(ctx context.Context, rs *fnv1.ResourceSelector) (*fnv1.Resources, error)
}

// How many times a function may iterate on its extra resource requirements
// before we give up on them converging.
const maxRequirementsIterations = 5

// A fetchingFunctionRunner wraps a FunctionRunner, re-running a function with
// the extra resources it requires until its requirements stabilize.
type fetchingFunctionRunner struct {
	wrapped FunctionRunner
	fetcher ExtraResourcesFetcher
}

func (r *fetchingFunctionRunner) RunFunction(ctx context.Context, name string, req *fnv1.RunFunctionRequest) (*fnv1.RunFunctionResponse, error) {
	rsp, err := r.wrapped.RunFunction(ctx, name, req)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxRequirementsIterations; i++ {
		selectors := rsp.GetRequirements().GetExtraResources()
		if len(selectors) == 0 {
			return rsp, nil
		}

		resources := map[string]*fnv1.Resources{}
		for rn, selector := range selectors {
			rs, err := r.fetcher.Fetch(ctx, selector)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot fetch extra resources %q for Function %q", rn, name)
			}
			resources[rn] = rs
		}

		// Stable requirements mean the function is done requesting resources.
		if proto.Equal(&fnv1.RunFunctionRequest{ExtraResources: req.GetExtraResources()}, &fnv1.RunFunctionRequest{ExtraResources: resources}) {
			return rsp, nil
		}

		req.ExtraResources = resources

		rsp, err = r.wrapped.RunFunction(ctx, name, req)
		if err != nil {
			return nil, err
		}
	}

	return nil, errors.Errorf("requirements of Function %q didn't stabilize after %d iterations", name, maxRequirementsIterations)
}
