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

// Package generate contains the test scaffold generator.
package generate

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	"github.com/upbound/xptest/internal/project"
	"github.com/upbound/xptest/internal/tests"
)

//go:embed templates/*.yaml.tmpl
var templates embed.FS

// templateData is the data rendered into the test scaffold templates.
type templateData struct {
	Name string
}

// Cmd is the `xptest generate` command.
type Cmd struct {
	Name        string `arg:""                 help:"Name for the new test."           required:""`
	ProjectFile string `default:"xptest.yaml"  help:"Path to project definition file." short:"f"`
	E2E         bool   `help:"Generate an end-to-end test instead of a composition test." name:"e2e"`
	Force       bool   `help:"Overwrite the test directory if it isn't empty."`

	projFS   afero.Fs
	testName string
	testDir  string
}

func (c *Cmd) Help() string {
	return `
The 'generate' command creates a test scaffold in the project's tests
directory.

Examples:
    generate xstoragebucket
        Creates a composition test scaffold in 'tests/test-xstoragebucket'.

    generate xstoragebucket --e2e
        Creates an e2e test scaffold in 'tests/e2etest-xstoragebucket'.
`
}

// AfterApply processes flags and locates the tests directory.
func (c *Cmd) AfterApply() error {
	c.testName = fmt.Sprintf("%s%s", tests.CompositionTestPrefix, c.Name)
	if c.E2E {
		c.testName = fmt.Sprintf("%s%s", tests.E2ETestPrefix, c.Name)
	}

	// The location of the project file defines the root of the project.
	projFilePath, err := filepath.Abs(c.ProjectFile)
	if err != nil {
		return err
	}
	projDirPath := filepath.Dir(projFilePath)
	c.projFS = afero.NewBasePathFs(afero.NewOsFs(), projDirPath)

	proj, err := project.Parse(c.projFS, filepath.Base(c.ProjectFile))
	if err != nil {
		return err
	}

	c.testDir = filepath.Join(proj.Spec.Paths.Tests, c.testName)

	return nil
}

// Run executes the test generation command.
func (c *Cmd) Run() error {
	pterm.EnableStyling()

	if errs := validation.IsDNS1035Label(c.testName); len(errs) > 0 {
		return errors.Errorf("%q is not a valid test name. DNS-1035 constraints: %s", c.testName, strings.Join(errs, "; "))
	}

	empty, err := isDirEmpty(c.projFS, c.testDir)
	if err != nil {
		return errors.Wrap(err, "failed to check the test directory")
	}

	if !empty && !c.Force {
		pterm.Println()
		confirm := pterm.DefaultInteractiveConfirm
		confirm.DefaultText = fmt.Sprintf("The folder %q is not empty. Do you want to overwrite its contents?", c.testDir)
		confirm.DefaultValue = false
		result, _ := confirm.Show()
		pterm.Println()

		if !result {
			pterm.Error.Println("The operation was cancelled.")
			return errors.New("operation cancelled by user")
		}
	}

	if err := c.Generate(); err != nil {
		return err
	}

	pterm.Printfln("Successfully created test and saved to %s", c.testDir)
	return nil
}

// Generate renders the scaffold template into the test directory.
func (c *Cmd) Generate() error {
	name := "templates/compositiontest.yaml.tmpl"
	if c.E2E {
		name = "templates/e2etest.yaml.tmpl"
	}

	tmpl, err := template.ParseFS(templates, name)
	if err != nil {
		return errors.Wrapf(err, "failed to parse template %q", name)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, templateData{Name: c.testName}); err != nil {
		return errors.Wrapf(err, "failed to render template %q", name)
	}

	if err := c.projFS.MkdirAll(c.testDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create test directory %q", c.testDir)
	}

	out := filepath.Join(c.testDir, "main.yaml")
	return errors.Wrapf(afero.WriteFile(c.projFS, out, buf.Bytes(), 0o644), "failed to write %q", out)
}

// isDirEmpty returns true if the supplied directory doesn't exist or has no
// entries.
func isDirEmpty(fs afero.Fs, dir string) (bool, error) {
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
