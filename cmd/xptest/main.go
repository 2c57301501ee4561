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

// Package main implements the xptest CLI, a tool for testing Crossplane
// compositions and control planes.
package main

import (
	"github.com/alecthomas/kong"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/upbound/xptest/cmd/xptest/assert"
	"github.com/upbound/xptest/cmd/xptest/generate"
	"github.com/upbound/xptest/cmd/xptest/run"
	"github.com/upbound/xptest/cmd/xptest/validate"
	"github.com/upbound/xptest/cmd/xptest/version"
)

var _ = kong.Must(&cli{})

type verboseFlag bool

// BeforeApply binds a verbose logger when --verbose is set.
func (v verboseFlag) BeforeApply(ctx *kong.Context) error { //nolint:unparam // BeforeApply requires this signature.
	logger := logging.NewLogrLogger(zap.New(zap.UseDevMode(true)))
	ctx.BindTo(logger, (*logging.Logger)(nil))

	return nil
}

// The top-level xptest CLI.
type cli struct {
	// Subcommands and flags will appear in the CLI help output in the same
	// order they're specified here. Keep them in alphabetical order.
	Assert   assert.Cmd   `cmd:"" help:"Assert that expected resources are a subset of rendered resources."`
	Generate generate.Cmd `cmd:"" help:"Generate a test scaffold."`
	Run      run.Cmd      `cmd:"" help:"Run composition and e2e tests."`
	Validate validate.Cmd `cmd:"" help:"Validate resources against XRD and CRD schemas."`
	Version  version.Cmd  `cmd:"" help:"Print the version of xptest."`

	// Flags.
	Verbose verboseFlag `help:"Print verbose logging statements." name:"verbose"`
}

func main() {
	logger := logging.NewNopLogger()
	ctx := kong.Parse(&cli{},
		kong.Name("xptest"),
		kong.Description("A command line tool for testing Crossplane compositions and control planes."),
		// Binding a variable to kong context makes it available to all
		// commands at runtime.
		kong.BindTo(logger, (*logging.Logger)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			FlagsLast:      true,
			Compact:        true,
			WrapUpperBound: 80,
		}),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
