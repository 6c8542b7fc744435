// Copyright 2025 Tom Barlow
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


/*
Package cli provides the root command for the httptrace CLI.

It builds the Cobra command tree and handles global concerns like version
information, persistent flags and exit codes. Individual commands live in
the internal/commands subpackages.

# Command Tree

	httptrace
	├── init       Create a config file
	├── fetch      Perform traced HTTP requests
	├── spans      List spans from the span journal
	├── secret     Manage secrets used in exporter headers
	├── version    Show version
	└── help       Show help (supports --json)

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	if err := cli.NewRootCommand().Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Enable debug logging
	--quiet, -q      Only log errors and suppress result lines
	--json           Output in JSON format
	--config         Path to config file
*/
package cli
