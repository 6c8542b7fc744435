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


// Package setup implements "httptrace init", which writes a config file
// from a short series of questions.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/httptrace/internal/cli/prompt"
	"github.com/tombee/httptrace/internal/commands/shared"
	"github.com/tombee/httptrace/internal/config"
	"github.com/tombee/httptrace/internal/tracing"
)

var exporterChoices = []string{
	tracing.ExporterConsole,
	tracing.ExporterJournal,
	tracing.ExporterOTLP,
	tracing.ExporterOTLPHTTP,
}

// NewCommand creates the init command.
func NewCommand() *cobra.Command {
	var force, defaults bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Ask for the service name, interceptor level, span exporters, sampling rate
and ignored paths, then write the answers to the config file
(default: ~/.config/httptrace/config.yaml, or the path given by --config).

Use --defaults, or run without a terminal, to write the defaults without asking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := !defaults && term.IsTerminal(int(os.Stdin.Fd()))
			return run(cmd, prompt.NewSurveyPrompter(interactive), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Write defaults without prompting")

	return cmd
}

func run(cmd *cobra.Command, p prompt.Prompter, force bool) error {
	path := shared.GetConfigPath()
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return shared.NewConfigError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
	}

	cfg := config.Default()
	if p.IsInteractive() {
		if err := Ask(cmd.Context(), p, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return shared.NewConfigError("failed to write config", err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), struct {
			shared.JSONResponse
			Path string `json:"path"`
		}{shared.NewJSONResponse("init", true), path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// Ask fills cfg from the user's answers.
func Ask(ctx context.Context, p prompt.Prompter, cfg *config.Config) error {
	name, err := p.String(ctx, "Service name", cfg.Tracing.ServiceName, func(s string) error {
		if s == "" {
			return errors.New("service name is required")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cfg.Tracing.ServiceName = name

	level, err := p.Select(ctx, "Interceptor level",
		[]string{config.LevelRequest, config.LevelPerform, config.LevelBoth}, cfg.Interceptor.Level)
	if err != nil {
		return err
	}
	cfg.Interceptor.Level = level

	chosen, err := p.MultiSelect(ctx, "Span exporters", exporterChoices, []string{tracing.ExporterJournal})
	if err != nil {
		return err
	}
	cfg.Tracing.Exporters = nil
	var endpoint string
	for _, name := range exporterChoices {
		if !slices.Contains(chosen, name) {
			continue
		}
		e := tracing.ExporterConfig{Type: name}
		switch name {
		case tracing.ExporterOTLP, tracing.ExporterOTLPHTTP:
			if endpoint == "" {
				if endpoint, err = p.String(ctx, "OTLP collector endpoint", "localhost:4317", nil); err != nil {
					return err
				}
			}
			e.Endpoint = endpoint
		case tracing.ExporterJournal:
			if e.Path, err = config.DefaultJournalPath(); err != nil {
				return err
			}
		}
		cfg.Tracing.Exporters = append(cfg.Tracing.Exporters, e)
	}

	rate, err := p.Number(ctx, "Sampling rate (0 to 1)", cfg.Tracing.Sampling.Rate)
	if err != nil {
		return err
	}
	if rate < 0 || rate > 1 {
		return shared.NewConfigError(fmt.Sprintf("sampling rate must be between 0 and 1, got %v", rate), nil)
	}
	cfg.Tracing.Sampling.Rate = rate

	ignored, err := p.String(ctx, "Paths to leave untraced (comma-separated globs)", "", nil)
	if err != nil {
		return err
	}
	cfg.Ignore.Paths = prompt.SplitList(ignored)

	return nil
}
