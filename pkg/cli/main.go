/* Copyright 2025 Bookworm Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"strings"

	"github.com/bookwormfood/bookworm/pkg/cli/infra"
	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/pkg/errors"

	// commands
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/ls"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/remove"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/root"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/scan"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/serve"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/status"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/upload"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/version"
	"github.com/bookwormfood/bookworm/pkg/cli/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts --dbPath flag value from command line arguments
// regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// --dbPath may follow the subcommand, which root.ParseFlags does not
	// reach, and the database is opened before the commands are built
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		log.Errorf("%s\n", errors.Wrap(err, "initializing context"))
		os.Exit(1)
	}

	root.Register(scan.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(remove.NewCmd(*ctx))
	root.Register(upload.NewCmd(*ctx))
	root.Register(serve.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	err = root.Execute()
	ctx.Close()

	if err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
