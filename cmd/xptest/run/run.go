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

// Package run contains the test runner command.
package run

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/upbound/xptest/internal/e2e"
	"github.com/upbound/xptest/internal/project"
	"github.com/upbound/xptest/internal/tests"
)

// Cmd is the `xptest run` command.
type Cmd struct {
	Patterns       []string `arg:""                 help:"Glob patterns selecting test directories, relative to the tests directory." optional:""`
	ProjectFile    string   `default:"xptest.yaml"  help:"Path to project definition file."                                           short:"f"`
	MaxConcurrency uint     `default:"8"            env:"XPTEST_MAX_CONCURRENCY"                                                      help:"Maximum number of composition tests to run at once."`
	E2E            bool     `help:"Run end-to-end tests against the cluster in the current kubeconfig context." name:"e2e"`

	testFS      afero.Fs
	testsPath   string
	concurrency uint
}

func (c *Cmd) Help() string {
	return `
The 'run' command executes project tests.

Examples:
    run
        Runs all composition tests in the project's tests directory.

    run tests/test-xstoragebucket
        Runs a single composition test.

    run --e2e
        Runs end-to-end tests against the cluster in the current kubeconfig
        context.
`
}

// AfterApply processes flags and locates the tests directory.
func (c *Cmd) AfterApply(kongCtx *kong.Context) error {
	c.concurrency = max(1, c.MaxConcurrency)

	// The location of the project file defines the root of the project.
	projFilePath, err := filepath.Abs(c.ProjectFile)
	if err != nil {
		return err
	}
	projDirPath := filepath.Dir(projFilePath)
	projFS := afero.NewBasePathFs(afero.NewOsFs(), projDirPath)

	proj, err := project.Parse(projFS, filepath.Base(c.ProjectFile))
	if err != nil {
		return err
	}

	c.testsPath = proj.Spec.Paths.Tests
	c.testFS = afero.NewBasePathFs(projFS, c.testsPath)

	if len(c.Patterns) == 0 {
		c.Patterns = []string{"*"}
	}

	pterm.EnableStyling()

	return nil
}

// Run is the body of the command.
func (c *Cmd) Run(k *kong.Context, log logging.Logger) error {
	ctx := context.Background()

	suite, err := tests.NewBuilder(c.testFS).Build(c.Patterns, c.testsPath)
	if err != nil {
		return errors.Wrap(err, "failed to discover tests")
	}

	if c.E2E {
		return c.runE2ETests(ctx, k, log, suite)
	}
	return c.runCompositionTests(ctx, k, log, suite)
}

func (c *Cmd) runCompositionTests(ctx context.Context, k *kong.Context, log logging.Logger, suite *tests.Suite) error {
	if len(suite.CompositionTests) == 0 {
		pterm.Error.Println("No test files found")
		return nil
	}

	var mu sync.Mutex
	failed := 0

	eg := &errgroup.Group{}
	eg.SetLimit(int(c.concurrency))
	for _, tc := range suite.CompositionTests {
		eg.Go(func() error {
			buf := &bytes.Buffer{}
			err := tests.RunCompositionTest(ctx, log, c.testFS, tc, buf)

			mu.Lock()
			defer mu.Unlock()
			_, _ = fmt.Fprint(k.Stdout, buf.String())
			if err != nil {
				pterm.Error.Printfln("Test %q failed: %s", tc.Name(), err)
				failed++
				return nil
			}
			pterm.Success.Printfln("Test %q passed", tc.Name())
			return nil
		})
	}
	_ = eg.Wait()

	return summarize(len(suite.CompositionTests), failed)
}

// runE2ETests runs the suite's e2e tests one at a time. They share a cluster,
// so they don't run concurrently.
func (c *Cmd) runE2ETests(ctx context.Context, k *kong.Context, log logging.Logger, suite *tests.Suite) error {
	if len(suite.E2ETests) == 0 {
		pterm.Error.Println("No test files found")
		return nil
	}

	cl, err := e2e.NewClusterClient()
	if err != nil {
		return err
	}
	runner := e2e.NewRunner(cl, log)

	failed := 0
	for _, tc := range suite.E2ETests {
		if err := runner.Run(ctx, tc.Test, k.Stdout); err != nil {
			pterm.Error.Printfln("Test %q failed: %s", tc.Test.GetName(), err)
			failed++
			continue
		}
		pterm.Success.Printfln("Test %q passed", tc.Test.GetName())
	}

	return summarize(len(suite.E2ETests), failed)
}

func summarize(total, failed int) error {
	printlnFunc := pterm.Success.Println
	if failed > 0 {
		printlnFunc = pterm.Error.Println
	}

	printlnFunc()
	printlnFunc("Tests Summary:")
	printlnFunc("------------------")
	printlnFunc("Total Tests Executed:", total)
	printlnFunc("Passed tests:        ", total-failed)
	printlnFunc("Failed tests:        ", failed)

	if failed > 0 {
		return errors.Errorf("%d tests failed", failed)
	}
	return nil
}
