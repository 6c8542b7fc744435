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
Package secrets resolves credentials referenced from configuration.

Exporter headers may embed references of the form ${secret:name}. A
Resolver looks each name up in its backends in priority order:

	env      - HTTPTRACE_SECRET_<NAME> environment variables (read-only)
	keychain - the OS keychain under the "httptrace" service

Usage:

	r := secrets.NewResolver(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	headers, err := r.ExpandMap(ctx, cfg.Headers)

Names are lowercase letters, digits, dots, dashes and underscores.
*/
package secrets
