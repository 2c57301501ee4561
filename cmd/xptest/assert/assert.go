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

// Package assert implements subset assertions over rendered resources.
package assert

import (
	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/upbound/xptest/internal/assert"
	"github.com/upbound/xptest/internal/validate"
)

// Cmd arguments and flags for the assert subcommand.
type Cmd struct {
	// Arguments.
	Expected string `arg:"" help:"A YAML file or directory with the expected resources."`
	Actual   string `arg:"" help:"A YAML file or directory with the actual resources, or - for stdin."`

	// Flags. Keep them in alphabetical order.
	SkipSuccessLogs bool `help:"Skip printing success logs."`

	fs afero.Fs
}

// Help prints out the help for the assert command.
func (c *Cmd) Help() string {
	return `
This command asserts that each expected resource appears, as a subset, in the
actual resources. Resources are matched by name, labels, or group, version
and kind.

Examples:

  # Assert the resources in expected.yaml against the rendered output in
  # rendered.yaml
  xptest assert expected.yaml rendered.yaml
`
}

// AfterApply sets up the filesystem the loaders read from.
func (c *Cmd) AfterApply() error {
	c.fs = afero.NewOsFs()
	return nil
}

// Run assert.
func (c *Cmd) Run(k *kong.Context, _ logging.Logger) error {
	expectedLoader, err := validate.NewLoader(c.fs, c.Expected)
	if err != nil {
		return errors.Wrapf(err, "cannot load expected resources from %q", c.Expected)
	}

	expected, err := expectedLoader.Load()
	if err != nil {
		return errors.Wrapf(err, "cannot load expected resources from %q", c.Expected)
	}

	actualLoader, err := validate.NewLoader(c.fs, c.Actual)
	if err != nil {
		return errors.Wrapf(err, "cannot load actual resources from %q", c.Actual)
	}

	actual, err := actualLoader.Load()
	if err != nil {
		return errors.Wrapf(err, "cannot load actual resources from %q", c.Actual)
	}

	return assert.Assert(expected, actual, c.SkipSuccessLogs, k.Stdout)
}
