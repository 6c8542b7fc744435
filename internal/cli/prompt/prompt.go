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


// Package prompt provides interactive questions for CLI setup flows, with a
// survey-backed terminal implementation and a scripted one for tests.
package prompt

import (
	"context"
	"errors"
)

// ErrNonInteractive is returned when a prompt is attempted without a terminal.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// Prompter asks the user for values.
type Prompter interface {
	// String asks for free text. validate may be nil.
	String(ctx context.Context, message, def string, validate func(string) error) (string, error)

	// Number asks for a number.
	Number(ctx context.Context, message string, def float64) (float64, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string, def bool) (bool, error)

	// Select picks one of options.
	Select(ctx context.Context, message string, options []string, def string) (string, error)

	// MultiSelect picks any number of options.
	MultiSelect(ctx context.Context, message string, options []string, def []string) ([]string, error)

	// IsInteractive reports whether prompts can be displayed.
	IsInteractive() bool
}
