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
)

// MockPrompter answers prompts from a script, in order. When the script is
// exhausted each prompt returns its default.
type MockPrompter struct {
	responses []any
	next      int
	calls     []string
}

// NewMockPrompter creates a prompter that replays responses.
func NewMockPrompter(responses ...any) *MockPrompter {
	return &MockPrompter{responses: responses}
}

func (mp *MockPrompter) pop(kind, message string) (any, bool) {
	mp.calls = append(mp.calls, fmt.Sprintf("%s(%s)", kind, message))
	if mp.next >= len(mp.responses) {
		return nil, false
	}
	resp := mp.responses[mp.next]
	mp.next++
	return resp, true
}

func (mp *MockPrompter) String(ctx context.Context, message, def string, validate func(string) error) (string, error) {
	resp, ok := mp.pop("String", message)
	if !ok {
		return def, nil
	}
	str, ok := resp.(string)
	if !ok {
		return "", fmt.Errorf("mock response %d is %T, not a string", mp.next-1, resp)
	}
	if validate != nil {
		if err := validate(str); err != nil {
			return "", err
		}
	}
	return str, nil
}

func (mp *MockPrompter) Number(ctx context.Context, message string, def float64) (float64, error) {
	resp, ok := mp.pop("Number", message)
	if !ok {
		return def, nil
	}
	switch v := resp.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("mock response %d is %T, not a number", mp.next-1, resp)
}

func (mp *MockPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	resp, ok := mp.pop("Confirm", message)
	if !ok {
		return def, nil
	}
	b, ok := resp.(bool)
	if !ok {
		return false, fmt.Errorf("mock response %d is %T, not a bool", mp.next-1, resp)
	}
	return b, nil
}

func (mp *MockPrompter) Select(ctx context.Context, message string, options []string, def string) (string, error) {
	resp, ok := mp.pop("Select", message)
	if !ok {
		return def, nil
	}
	str, ok := resp.(string)
	if !ok {
		return "", fmt.Errorf("mock response %d is %T, not a string", mp.next-1, resp)
	}
	for _, o := range options {
		if o == str {
			return str, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", str, options)
}

func (mp *MockPrompter) MultiSelect(ctx context.Context, message string, options []string, def []string) ([]string, error) {
	resp, ok := mp.pop("MultiSelect", message)
	if !ok {
		return def, nil
	}
	list, ok := resp.([]string)
	if !ok {
		return nil, fmt.Errorf("mock response %d is %T, not a []string", mp.next-1, resp)
	}
	return list, nil
}

// IsInteractive always reports true.
func (mp *MockPrompter) IsInteractive() bool { return true }

// Calls returns the prompts asked so far.
func (mp *MockPrompter) Calls() []string { return mp.calls }
