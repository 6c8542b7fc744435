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


package prompt

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
)

// SurveyPrompter implements Prompter on the terminal using survey.
type SurveyPrompter struct {
	interactive bool
}

// NewSurveyPrompter creates a survey prompter. With interactive false every
// prompt fails with ErrNonInteractive.
func NewSurveyPrompter(interactive bool) *SurveyPrompter {
	return &SurveyPrompter{interactive: interactive}
}

func (sp *SurveyPrompter) String(ctx context.Context, message, def string, validate func(string) error) (string, error) {
	if !sp.interactive {
		return "", ErrNonInteractive
	}

	var result string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &result,
		survey.WithValidator(func(ans interface{}) error {
			str, _ := ans.(string)
			if err := ValidateString(str); err != nil {
				return err
			}
			if validate != nil {
				return validate(str)
			}
			return nil
		}))
	return result, err
}

func (sp *SurveyPrompter) Number(ctx context.Context, message string, def float64) (float64, error) {
	if !sp.interactive {
		return 0, ErrNonInteractive
	}

	var input string
	err := survey.AskOne(&survey.Input{Message: message, Default: strconv.FormatFloat(def, 'f', -1, 64)}, &input,
		survey.WithValidator(func(ans interface{}) error {
			str, _ := ans.(string)
			_, err := ValidateNumber(str)
			return err
		}))
	if err != nil {
		return 0, err
	}
	return ValidateNumber(input)
}

func (sp *SurveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if !sp.interactive {
		return false, ErrNonInteractive
	}

	var result bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &result)
	return result, err
}

func (sp *SurveyPrompter) Select(ctx context.Context, message string, options []string, def string) (string, error) {
	if !sp.interactive {
		return "", ErrNonInteractive
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	var result string
	err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &result)
	return result, err
}

func (sp *SurveyPrompter) MultiSelect(ctx context.Context, message string, options []string, def []string) ([]string, error) {
	if !sp.interactive {
		return nil, ErrNonInteractive
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no options provided")
	}

	var result []string
	err := survey.AskOne(&survey.MultiSelect{Message: message, Options: options, Default: def}, &result)
	return result, err
}

// IsInteractive returns whether the prompter can display interactive prompts.
func (sp *SurveyPrompter) IsInteractive() bool {
	return sp.interactive
}
