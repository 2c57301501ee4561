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

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	pkgv1 "github.com/crossplane/crossplane/apis/pkg/v1"
)

// AnnotationKeyRuntimeDevelopmentTarget can be added to a Function to control
// where a Development runtime function listens for RunFunctionRequest gRPCs.
const AnnotationKeyRuntimeDevelopmentTarget = "render.crossplane.io/runtime-development-target"

// RuntimeDevelopment is largely a no-op runtime. It expects you to run a
// Function manually, which is useful while developing one.
type RuntimeDevelopment struct {
	// Target is the gRPC target of the running function.
	Target string

	log logging.Logger
}

// GetRuntimeDevelopment extracts RuntimeDevelopment configuration from the
// supplied Function.
func GetRuntimeDevelopment(fn pkgv1.Function, log logging.Logger) *RuntimeDevelopment {
	r := &RuntimeDevelopment{Target: "localhost:9443", log: log}
	if t := fn.GetAnnotations()[AnnotationKeyRuntimeDevelopmentTarget]; t != "" {
		r.Target = t
	}
	return r
}

var _ Runtime = &RuntimeDevelopment{}

// Start does nothing. The function is assumed to already be running.
func (r *RuntimeDevelopment) Start(_ context.Context) (RuntimeContext, error) {
	return RuntimeContext{Target: r.Target, Stop: func(_ context.Context) error { return nil }}, nil
}
