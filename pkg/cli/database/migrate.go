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

package database

import (
	"embed"

	"github.com/bookwormfood/bookworm/pkg/cli/log"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// MigrationTableName is the name of the table that keeps track of migrations
const MigrationTableName = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

func init() {
	migrate.SetTable(MigrationTableName)
}

func migrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate brings the schema up to date. It is safe to run on every start.
func Migrate(db *DB) error {
	n, err := migrate.Exec(db.Conn, "sqlite3", migrationSource(), migrate.Up)
	if err != nil {
		return errors.Wrap(err, "running migrations")
	}

	if n > 0 {
		log.Debug("applied %d migrations\n", n)
	}

	return nil
}
