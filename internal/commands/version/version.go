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

package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tombee/httptrace/internal/commands/shared"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor/perform"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date"`
	GoVersion     string `json:"go_version"`
	ClientVersion string `json:"client_version"`
	MinimumClient string `json:"minimum_client_version"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the httptrace build and the version of the instrumented HTTP
client library, together with the oldest client version the perform-level
interceptor accepts.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	v, c, b := shared.GetVersion()

	info := VersionInfo{
		Version:       v,
		Commit:        c,
		BuildDate:     b,
		GoVersion:     runtime.Version(),
		ClientVersion: httpclient.Version,
		MinimumClient: perform.MinimumClientVersion,
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "httptrace version %s\n", info.Version)
	fmt.Fprintf(out, "  commit:         %s\n", info.Commit)
	fmt.Fprintf(out, "  build date:     %s\n", info.BuildDate)
	fmt.Fprintf(out, "  go:             %s\n", info.GoVersion)
	fmt.Fprintf(out, "  httpclient:     %s (minimum %s)\n", info.ClientVersion, info.MinimumClient)
	return nil
}
