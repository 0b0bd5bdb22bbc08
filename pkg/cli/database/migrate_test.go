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
	"fmt"
	"testing"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/pkg/errors"
)

func TestMigrate(t *testing.T) {
	db := InitTestMemoryDB(t)

	// running again on an up to date schema is a no-op
	if err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating twice"))
	}

	var applied int
	MustScan(t, "counting migrations", db.QueryRow(fmt.Sprintf("SELECT count(*) FROM %s", MigrationTableName)), &applied)
	assert.Equal(t, applied, 3, "applied migrations mismatch")

	for _, table := range []string{"books", "tombstones", "lookups"} {
		var count int
		MustScan(t, fmt.Sprintf("finding table %s", table),
			db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table), &count)
		assert.Equal(t, count, 1, fmt.Sprintf("table %s should exist", table))
	}
}
