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

// Package validate implements offline schema validation of rendered
// resources.
package validate

import (
	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/upbound/xptest/internal/validate"
)

// Cmd arguments and flags for the validate subcommand.
type Cmd struct {
	// Arguments.
	Schemas   string `arg:"" help:"A YAML file or directory with XRD and CRD schemas."`
	Resources string `arg:"" help:"A YAML file or directory with resources to validate, or - for stdin."`

	// Flags. Keep them in alphabetical order.
	SkipSuccessLogs bool `help:"Skip printing success logs."`

	fs afero.Fs
}

// Help prints out the help for the validate command.
func (c *Cmd) Help() string {
	return `
This command validates resources against XRD and CRD schemas in offline mode.
It doesn't talk to any control plane. Instead it uses the Kubernetes API
server's validation library to provide offline schema validation.

Examples:

  # Validate all resources in resources.yaml against the schemas in
  # schemas.yaml
  xptest validate schemas.yaml resources.yaml

  # Validate a directory of resources and skip success logs
  xptest validate schemasDir/ resourceDir/ --skip-success-logs
`
}

// AfterApply sets up the filesystem the loaders read from.
func (c *Cmd) AfterApply() error {
	c.fs = afero.NewOsFs()
	return nil
}

// Run validate.
func (c *Cmd) Run(k *kong.Context, _ logging.Logger) error {
	schemaLoader, err := validate.NewLoader(c.fs, c.Schemas)
	if err != nil {
		return errors.Wrapf(err, "cannot load schemas from %q", c.Schemas)
	}

	schemas, err := schemaLoader.Load()
	if err != nil {
		return errors.Wrapf(err, "cannot load schemas from %q", c.Schemas)
	}

	resourceLoader, err := validate.NewLoader(c.fs, c.Resources)
	if err != nil {
		return errors.Wrapf(err, "cannot load resources from %q", c.Resources)
	}

	resources, err := resourceLoader.Load()
	if err != nil {
		return errors.Wrapf(err, "cannot load resources from %q", c.Resources)
	}

	return errors.Wrap(validate.SchemaValidation(resources, schemas, c.SkipSuccessLogs, k.Stdout), "cannot validate resources")
}
