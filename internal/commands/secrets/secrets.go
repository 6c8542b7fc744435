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


// Package secrets implements "httptrace secret", which manages the secrets
// referenced as ${secret:name} from exporter headers.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/httptrace/internal/cli/prompt"
	"github.com/tombee/httptrace/internal/commands/shared"
	secretstore "github.com/tombee/httptrace/internal/secrets"
)

// NewCommand creates the secret command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets used in exporter headers",
		Long: `Store, show and delete secrets that exporter headers reference as
${secret:name}, for example:

  exporters:
    - type: otlp
      endpoint: api.honeycomb.io:443
      headers:
        x-honeycomb-team: ${secret:honeycomb-key}

Secrets are read from HTTPTRACE_SECRET_<NAME> environment variables first,
then from the system keychain. New secrets are stored in the keychain.`,
	}

	cmd.AddCommand(newSetCommand(), newGetCommand(), newDeleteCommand())
	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret in the keychain",
		Long: `Store a secret. The value is read from standard input when it is piped,
otherwise it is prompted for without echo.

Examples:
  httptrace secret set honeycomb-key
  echo "$TOKEN" | httptrace secret set otlp.token`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := secretstore.ValidateKey(key); err != nil {
				return shared.NewConfigError("invalid secret name", err)
			}

			value, err := readValue(cmd)
			if err != nil {
				return fmt.Errorf("failed to read secret value: %w", err)
			}
			if value == "" {
				return shared.NewConfigError("secret value cannot be empty", nil)
			}

			if err := secretstore.Default().Set(cmd.Context(), key, value, ""); err != nil {
				return err
			}
			if !shared.GetQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored secret %q\n", key)
			}
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a secret (masked by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := secretstore.Default().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !unmask {
				value = mask(value)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), struct {
					shared.JSONResponse
					Name  string `json:"name"`
					Value string `json:"value"`
				}{shared.NewJSONResponse("secret get", true), args[0], value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unmask, "unmask", false, "Show the full value")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a secret from the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				p := prompt.NewSurveyPrompter(term.IsTerminal(int(os.Stdin.Fd())))
				ok, err := p.Confirm(cmd.Context(), fmt.Sprintf("Delete secret %q?", args[0]), false)
				if errors.Is(err, prompt.ErrNonInteractive) {
					return shared.NewConfigError("refusing to delete without a terminal (use --force)", nil)
				}
				if err != nil || !ok {
					return err
				}
			}

			if err := secretstore.Default().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if !shared.GetQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret %q\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

// readValue reads the secret from a piped stdin, or prompts without echo
// when stdin is a terminal.
func readValue(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret value (hidden): ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	data, err := io.ReadAll(io.LimitReader(in, prompt.MaxInputSize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func mask(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
