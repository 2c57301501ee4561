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
	"io"
	"strings"
	"testing"

	typesimage "github.com/docker/docker/api/types/image"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	pkgv1 "github.com/crossplane/crossplane/apis/pkg/v1"
)

type mockPullClient struct {
	MockImagePull func(ctx context.Context, ref string, options typesimage.PullOptions) (io.ReadCloser, error)
}

func (m *mockPullClient) ImagePull(ctx context.Context, ref string, options typesimage.PullOptions) (io.ReadCloser, error) {
	return m.MockImagePull(ctx, ref, options)
}

var _ pullClient = &mockPullClient{}

func TestGetRuntimeDocker(t *testing.T) {
	type args struct {
		fn pkgv1.Function
	}
	type want struct {
		rd  *RuntimeDocker
		err error
	}

	cases := map[string]struct {
		reason string
		args   args
		want   want
	}{
		"SuccessAllSet": {
			reason: "should return a RuntimeDocker with all fields set according to the supplied Function's annotations",
			args: args{
				fn: pkgv1.Function{
					ObjectMeta: metav1.ObjectMeta{
						Annotations: map[string]string{
							AnnotationKeyRuntimeDockerCleanup:        string(AnnotationValueRuntimeDockerCleanupOrphan),
							AnnotationKeyRuntimeDockerPullPolicy:     string(AnnotationValueRuntimeDockerPullPolicyAlways),
							AnnotationKeyRuntimeDockerImage:          "test-image-from-annotation",
							AnnotationKeyRuntimeNamedContainer:       "test-container",
							AnnotationKeyRuntimeEnvironmentVariables: "key1=value1,bogus,key2=value2",
						},
					},
					Spec: pkgv1.FunctionSpec{
						PackageSpec: pkgv1.PackageSpec{
							Package: "test-package",
						},
					},
				},
			},
			want: want{
				rd: &RuntimeDocker{
					Image:      "test-image-from-annotation",
					Name:       "test-container",
					Cleanup:    AnnotationValueRuntimeDockerCleanupOrphan,
					PullPolicy: AnnotationValueRuntimeDockerPullPolicyAlways,
					Env:        []string{"key1=value1", "key2=value2"},
				},
			},
		},
		"SuccessDefaults": {
			reason: "should return a RuntimeDocker with default fields set if no annotation are set",
			args: args{
				fn: pkgv1.Function{
					ObjectMeta: metav1.ObjectMeta{
						Annotations: map[string]string{},
					},
					Spec: pkgv1.FunctionSpec{
						PackageSpec: pkgv1.PackageSpec{
							Package: "test-package",
						},
					},
				},
			},
			want: want{
				rd: &RuntimeDocker{
					Image:      "test-package",
					Cleanup:    AnnotationValueRuntimeDockerCleanupRemove,
					PullPolicy: AnnotationValueRuntimeDockerPullPolicyIfNotPresent,
				},
			},
		},
		"ErrorUnknownAnnotationValueCleanup": {
			reason: "should return an error if the supplied Function has an unknown cleanup annotation value",
			args: args{
				fn: pkgv1.Function{
					ObjectMeta: metav1.ObjectMeta{
						Annotations: map[string]string{
							AnnotationKeyRuntimeDockerCleanup: "wrong",
						},
					},
					Spec: pkgv1.FunctionSpec{
						PackageSpec: pkgv1.PackageSpec{
							Package: "test-package",
						},
					},
				},
			},
			want: want{
				err: cmpopts.AnyError,
			},
		},
		"ErrorUnknownAnnotationPullPolicy": {
			reason: "should return an error if the supplied Function has an unknown pull policy annotation value",
			args: args{
				fn: pkgv1.Function{
					ObjectMeta: metav1.ObjectMeta{
						Annotations: map[string]string{
							AnnotationKeyRuntimeDockerPullPolicy: "wrong",
						},
					},
					Spec: pkgv1.FunctionSpec{
						PackageSpec: pkgv1.PackageSpec{
							Package: "test-package",
						},
					},
				},
			},
			want: want{
				err: cmpopts.AnyError,
			},
		},
		"AnnotationsCleanupSetToStop": {
			reason: "should return a RuntimeDocker that stops its container when the cleanup annotation says so",
			args: args{
				fn: pkgv1.Function{
					ObjectMeta: metav1.ObjectMeta{
						Annotations: map[string]string{
							AnnotationKeyRuntimeDockerCleanup: string(AnnotationValueRuntimeDockerCleanupStop),
						},
					},
					Spec: pkgv1.FunctionSpec{
						PackageSpec: pkgv1.PackageSpec{
							Package: "test-package",
						},
					},
				},
			},
			want: want{
				rd: &RuntimeDocker{
					Image:      "test-package",
					Cleanup:    AnnotationValueRuntimeDockerCleanupStop,
					PullPolicy: AnnotationValueRuntimeDockerPullPolicyIfNotPresent,
				},
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rd, err := GetRuntimeDocker(tc.args.fn, logging.NewNopLogger())
			if diff := cmp.Diff(tc.want.rd, rd, cmpopts.IgnoreUnexported(RuntimeDocker{}), cmpopts.IgnoreFields(RuntimeDocker{}, "Keychain")); diff != "" {
				t.Errorf("\n%s\nGetRuntimeDocker(...): -want, +got:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("\n%s\nGetRuntimeDocker(...): -want error, +got error:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestPullImage(t *testing.T) {
	type args struct {
		p pullClient
	}
	type want struct {
		err error
	}

	errBoom := errors.New("boom")

	cases := map[string]struct {
		reason string
		args   args
		want   want
	}{
		"Success": {
			reason: "should consume the pull output and return nil",
			args: args{
				p: &mockPullClient{
					MockImagePull: func(_ context.Context, _ string, _ typesimage.PullOptions) (io.ReadCloser, error) {
						return io.NopCloser(strings.NewReader(`{"status":"Pulling"}`)), nil
					},
				},
			},
			want: want{},
		},
		"Error": {
			reason: "should return the error from the pull client",
			args: args{
				p: &mockPullClient{
					MockImagePull: func(_ context.Context, _ string, _ typesimage.PullOptions) (io.ReadCloser, error) {
						return nil, errBoom
					},
				},
			},
			want: want{
				err: errBoom,
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := PullImage(context.Background(), tc.args.p, "test-image", typesimage.PullOptions{})
			if diff := cmp.Diff(tc.want.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("\n%s\nPullImage(...): -want error, +got error:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestGetDockerHostIP(t *testing.T) {
	type want struct {
		ip  string
		err error
	}
	cases := map[string]struct {
		reason     string
		dockerHost string
		want       want
	}{
		"TCPWithPort": {
			reason: "should extract the host from a tcp:// URL with a port",
			dockerHost: "tcp://10.0.0.5:2375",
			want: want{
				ip: "10.0.0.5",
			},
		},
		"SSHWithoutPort": {
			reason: "should extract the host from an ssh:// URL without a port",
			dockerHost: "ssh://docker-host",
			want: want{
				ip: "docker-host",
			},
		},
		"Invalid": {
			reason: "should return an error for an unparseable value",
			dockerHost: "not a url",
			want: want{
				err: cmpopts.AnyError,
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ip, err := getDockerHostIP(tc.dockerHost)
			if diff := cmp.Diff(tc.want.ip, ip); diff != "" {
				t.Errorf("\n%s\ngetDockerHostIP(...): -want, +got:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("\n%s\ngetDockerHostIP(...): -want error, +got error:\n%s", tc.reason, diff)
			}
		})
	}
}
