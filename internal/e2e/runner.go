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

// Package e2e runs end-to-end tests against the cluster in the current
// kubeconfig context.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	xpv1 "github.com/crossplane/crossplane-runtime/apis/common/v1"
	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/fieldpath"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	e2etest "github.com/upbound/xptest/apis/e2etest/v1alpha1"
)

// FieldOwner is the server-side apply field owner for resources the runner
// applies.
const FieldOwner = "xptest"

// How often to re-check applied resources while waiting for their conditions.
const pollInterval = 2 * time.Second

// NewClusterClient returns a controller-runtime client for the cluster in the
// current kubeconfig context.
func NewClusterClient() (client.Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load kubeconfig")
	}
	cl, err := client.New(cfg, client.Options{})
	return cl, errors.Wrap(err, "cannot create cluster client")
}

// A Runner applies an e2e test's manifests to a cluster and waits for them to
// report the test's conditions.
type Runner struct {
	client client.Client
	log    logging.Logger
}

// NewRunner returns a Runner that runs e2e tests against the cluster the
// supplied client points at.
func NewRunner(cl client.Client, log logging.Logger) *Runner {
	return &Runner{client: cl, log: log}
}

// Run applies the test's extra resources and manifests, waits until every
// manifest reports all of the test's conditions with status True, then
// deletes the manifests unless the test skips deletion. Progress is written
// to w.
func (r *Runner) Run(ctx context.Context, t *e2etest.E2ETest, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(*t.Spec.TimeoutSeconds)*time.Second)
	defer cancel()

	extra, err := parseResources(t.Spec.ExtraResources)
	if err != nil {
		return errors.Wrap(err, "cannot parse extra resources")
	}
	manifests, err := parseResources(t.Spec.Manifests)
	if err != nil {
		return errors.Wrap(err, "cannot parse manifests")
	}
	if len(manifests) == 0 {
		return errors.Errorf("e2e test %q has no manifests to apply", t.GetName())
	}

	if err := r.apply(ctx, extra); err != nil {
		return errors.Wrap(err, "cannot apply extra resources")
	}
	if err := r.apply(ctx, manifests); err != nil {
		return errors.Wrap(err, "cannot apply manifests")
	}

	if err := r.waitForConditions(ctx, manifests, t.Spec.DefaultConditions, w); err != nil {
		return err
	}

	if t.Spec.SkipDelete != nil && *t.Spec.SkipDelete {
		r.log.Debug("Skipping deletion of applied manifests", "test", t.GetName())
		return nil
	}

	return r.delete(ctx, manifests)
}

func parseResources(raws []runtime.RawExtension) ([]*unstructured.Unstructured, error) {
	out := make([]*unstructured.Unstructured, 0, len(raws))
	for i, raw := range raws {
		if len(raw.Raw) == 0 {
			return nil, errors.Errorf("resource %d is empty", i)
		}
		u := &unstructured.Unstructured{}
		if err := json.Unmarshal(raw.Raw, u); err != nil {
			return nil, errors.Wrapf(err, "cannot unmarshal resource %d", i)
		}
		out = append(out, u)
	}
	return out, nil
}

// apply server-side applies the supplied resources. Applies are retried with
// backoff since RBAC for freshly installed packages propagates asynchronously.
func (r *Runner) apply(ctx context.Context, resources []*unstructured.Unstructured) error {
	backoff := wait.Backoff{
		Duration: 5 * time.Second,
		Factor:   2.0,
		Jitter:   0.1,
		Steps:    20,
	}

	for _, obj := range resources {
		err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
			if err := r.client.Patch(ctx, obj, client.Apply, client.ForceOwnership, client.FieldOwner(FieldOwner)); err != nil {
				r.log.Debug("Retrying apply", "resource", obj.GetName(), "error", err)
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return errors.Wrapf(err, "failed to apply %s %q", obj.GetKind(), obj.GetName())
		}
	}
	return nil
}

// waitForConditions polls until every supplied resource reports all of the
// supplied condition types with status True.
func (r *Runner) waitForConditions(ctx context.Context, resources []*unstructured.Unstructured, conditions []string, w io.Writer) error {
	for _, obj := range resources {
		err := wait.PollUntilContextCancel(ctx, pollInterval, true, func(ctx context.Context) (bool, error) {
			u := &unstructured.Unstructured{}
			u.SetGroupVersionKind(obj.GroupVersionKind())
			if err := r.client.Get(ctx, client.ObjectKeyFromObject(obj), u); err != nil {
				if kerrors.IsNotFound(err) {
					return false, nil
				}
				return false, err
			}
			return hasConditions(u, conditions), nil
		})
		if err != nil {
			return errors.Wrapf(err, "%s %q did not report conditions %v before the test timed out", obj.GetKind(), obj.GetName(), conditions)
		}
		fmt.Fprintf(w, "[✓] %s, Name=%s is ready\n", obj.GroupVersionKind().String(), obj.GetName())
	}
	return nil
}

func hasConditions(u *unstructured.Unstructured, conditions []string) bool {
	conditioned := xpv1.ConditionedStatus{}
	if err := fieldpath.Pave(u.Object).GetValueInto("status", &conditioned); err != nil {
		return false
	}
	for _, c := range conditions {
		if conditioned.GetCondition(xpv1.ConditionType(c)).Status != corev1.ConditionTrue {
			return false
		}
	}
	return true
}

// delete removes the supplied resources and waits for them to go away.
func (r *Runner) delete(ctx context.Context, resources []*unstructured.Unstructured) error {
	for _, obj := range resources {
		if err := r.client.Delete(ctx, obj); err != nil && !kerrors.IsNotFound(err) {
			return errors.Wrapf(err, "failed to delete %s %q", obj.GetKind(), obj.GetName())
		}
	}

	for _, obj := range resources {
		err := wait.PollUntilContextCancel(ctx, pollInterval, true, func(ctx context.Context) (bool, error) {
			u := &unstructured.Unstructured{}
			u.SetGroupVersionKind(obj.GroupVersionKind())
			err := r.client.Get(ctx, client.ObjectKeyFromObject(obj), u)
			if kerrors.IsNotFound(err) {
				return true, nil
			}
			return false, err
		})
		if err != nil {
			return errors.Wrapf(err, "%s %q was not deleted before the test timed out", obj.GetKind(), obj.GetName())
		}
	}
	return nil
}
