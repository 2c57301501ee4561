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

package v1alpha1

import (
	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// Validate checks that the E2ETest is properly configured.
func (e *E2ETest) Validate() error {
	if errs := e.Spec.validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *E2ETestSpec) validate() []error {
	var errs []error

	if s.TimeoutSeconds != nil && *s.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("'timeoutSeconds' must be at least 1"))
	}

	if s.Crossplane != nil && s.Crossplane.AutoUpgradeSpec != nil && s.Crossplane.AutoUpgradeSpec.Channel != nil {
		switch *s.Crossplane.AutoUpgradeSpec.Channel {
		case CrossplaneUpgradeNone, CrossplaneUpgradePatch, CrossplaneUpgradeStable, CrossplaneUpgradeRapid:
		default:
			errs = append(errs, errors.Errorf("unknown auto upgrade channel %q", *s.Crossplane.AutoUpgradeSpec.Channel))
		}
	}

	return errs
}
