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

// Package version contains the version cmd.
package version

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/upbound/xptest/internal/version"
)

// Cmd represents the version command.
type Cmd struct{}

// Run runs the version command.
func (c *Cmd) Run(k *kong.Context) error {
	_, _ = fmt.Fprintln(k.Stdout, "Client Version: "+version.New().GetVersionString())
	return nil
}
