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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/bookwormfood/bookworm/pkg/server/config"
	"github.com/bookwormfood/bookworm/pkg/server/log"
)

func purgeCmd(args []string, w io.Writer) {
	fs := setupFlagSet("purge", "bookworm-server purge")

	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/bookworm/server.db)")
	dbURL := fs.String("dbUrl", "", "Postgres connection URL (env: DBURL)")
	tokenSecret := fs.String("tokenSecret", "", "Secret the ID tokens are signed with (env: TOKEN_SECRET)")
	envFile := fs.String("envFile", "", "Path to a .env file (default: .env if present)")

	fs.Parse(args)

	cfg := mustConfig(fs, *envFile, config.Params{
		DBPath:      *dbPath,
		DBURL:       *dbURL,
		TokenSecret: *tokenSecret,
	})

	a, cleanup, err := setupApp(cfg)
	if err != nil {
		log.ErrorWrap(err, "initializing app")
		os.Exit(1)
	}
	defer cleanup()

	n, err := a.PurgeExpiredUploads()
	if err != nil {
		log.ErrorWrap(err, "purging expired uploads")
		os.Exit(1)
	}

	fmt.Fprintf(w, "Deleted %d expired uploads\n", n)
}
