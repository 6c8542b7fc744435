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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tombee/httptrace/internal/commands/shared"
)

func TestHelpCommandJSON(t *testing.T) {
	defer shared.ResetFlagsForTest()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--json", "help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if resp.Command != nil {
		t.Error("expected command list, not a single command")
	}
	names := map[string]bool{}
	for _, c := range resp.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"fetch", "spans", "version"} {
		if !names[want] {
			t.Errorf("expected %q in command list", want)
		}
	}
	if len(resp.GlobalFlags) < 4 {
		t.Errorf("expected global flags, got %v", resp.GlobalFlags)
	}
}

func TestHelpCommandJSONSingle(t *testing.T) {
	defer shared.ResetFlagsForTest()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--json", "help", "fetch"})

	if err := root.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Command == nil || resp.Command.Name != "fetch" {
		t.Fatalf("expected fetch metadata, got %+v", resp.Command)
	}

	var method *FlagMetadata
	for i := range resp.Command.Flags {
		if resp.Command.Flags[i].Name == "method" {
			method = &resp.Command.Flags[i]
		}
	}
	if method == nil || method.Shorthand != "X" || method.Default != "GET" {
		t.Errorf("unexpected method flag: %+v", method)
	}
}

func TestHelpCommandHumanOutput(t *testing.T) {
	defer shared.ResetFlagsForTest()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"help", "spans"})

	if err := root.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(buf.String(), "--failed") {
		t.Errorf("expected spans flags in help, got:\n%s", buf.String())
	}
}

func TestHelpUnknownCommand(t *testing.T) {
	defer shared.ResetFlagsForTest()
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"help", "nope"})

	if err := root.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}
