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
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MustScan scans the given row and fails a test in case of any errors
func MustScan(t *testing.T, message string, row *sql.Row, args ...interface{}) {
	t.Helper()

	err := row.Scan(args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "scanning a row"), message))
	}
}

// MustExec executes the given SQL query and fails a test if an error occurs
func MustExec(t *testing.T, message string, db *DB, query string, args ...interface{}) sql.Result {
	t.Helper()

	result, err := db.Exec(query, args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "executing sql"), message))
	}

	return result
}

// MustSaveBook writes the record and fails a test if an error occurs
func MustSaveBook(t *testing.T, db *DB, b book.Book) {
	t.Helper()

	if err := SaveBook(db, b); err != nil {
		t.Fatal(errors.Wrapf(err, "saving book %s", b.ISBN))
	}
}

// MustGetBook returns the record and fails a test if it cannot be read
func MustGetBook(t *testing.T, db *DB, isbn string) book.Book {
	t.Helper()

	b, err := GetBook(db, isbn)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "getting book %s", isbn))
	}

	return b
}

// InitTestMemoryDB initializes an in-memory test database with the schema
// migrated to the latest version
func InitTestMemoryDB(t *testing.T) *DB {
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	return initTestDB(t, dbName)
}

// InitTestFileDB initializes a file-based test database with the schema
// migrated to the latest version
func InitTestFileDB(t *testing.T) (*DB, string) {
	dbPath := filepath.Join(t.TempDir(), fmt.Sprintf("bookworm-%s.db", uuid.NewString()))

	return initTestDB(t, dbPath), dbPath
}

func initTestDB(t *testing.T, dbPath string) *DB {
	db, err := Open(dbPath)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}

	if err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating database"))
	}

	t.Cleanup(func() { db.Close() })
	return db
}
