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


package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/httptrace/internal/commands/fetch"
	"github.com/tombee/httptrace/internal/commands/secrets"
	"github.com/tombee/httptrace/internal/commands/setup"
	"github.com/tombee/httptrace/internal/commands/shared"
	"github.com/tombee/httptrace/internal/commands/spans"
	versioncmd "github.com/tombee/httptrace/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "httptrace",
		Short: "httptrace - distributed tracing for HTTP client calls",
		Long: `httptrace sends HTTP requests through an instrumented client that opens a
client span for every call and propagates W3C trace context to the server.

Spans can be exported to the console, an OTLP collector, or a local journal
that 'httptrace spans' reads back.

Run 'httptrace init' to create a config file.
Run 'httptrace fetch <url>' to trace a request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, quiet, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/httptrace/config.yaml)")

	cmd.AddCommand(setup.NewCommand())
	cmd.AddCommand(fetch.NewCommand())
	cmd.AddCommand(spans.NewCommand())
	cmd.AddCommand(secrets.NewCommand())
	cmd.AddCommand(versioncmd.NewVersionCommand())
	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
