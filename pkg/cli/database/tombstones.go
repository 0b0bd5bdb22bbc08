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
	"time"
)

// A tombstone records a local deletion the cloud has not confirmed yet.

// PutTombstone records that the book with the given ISBN was deleted
func PutTombstone(db *DB, isbn string, at time.Time) error {
	_, err := db.Exec(`INSERT INTO tombstones (isbn, deleted_at) VALUES (?, ?)
		ON CONFLICT(isbn) DO UPDATE SET deleted_at = excluded.deleted_at`, isbn, at.UnixNano())
	if err != nil {
		return storageErr(err, "inserting tombstone")
	}

	return nil
}

// HasTombstone checks if a deletion of the given ISBN awaits the cloud
func HasTombstone(db *DB, isbn string) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM tombstones WHERE isbn = ?", isbn).Scan(&count); err != nil {
		return false, storageErr(err, "counting tombstones")
	}

	return count > 0, nil
}

// GetTombstones returns the ISBNs of every deletion awaiting the cloud
func GetTombstones(db *DB) ([]string, error) {
	rows, err := db.Query("SELECT isbn FROM tombstones ORDER BY deleted_at ASC")
	if err != nil {
		return nil, storageErr(err, "querying tombstones")
	}
	defer rows.Close()

	ret := []string{}
	for rows.Next() {
		var isbn string
		if err := rows.Scan(&isbn); err != nil {
			return nil, storageErr(err, "scanning tombstone")
		}

		ret = append(ret, isbn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterating tombstones")
	}

	return ret, nil
}

// ClearTombstone removes the tombstone of the given ISBN
func ClearTombstone(db *DB, isbn string) error {
	if _, err := db.Exec("DELETE FROM tombstones WHERE isbn = ?", isbn); err != nil {
		return storageErr(err, "deleting tombstone")
	}

	return nil
}

// RemoveBook deletes the book and leaves a tombstone in its place in one
// transaction
func RemoveBook(db *DB, isbn string, at time.Time) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, err
	}

	existed, err := DeleteBook(tx, isbn)
	if err != nil {
		tx.Rollback()
		return false, err
	}
	if err := PutTombstone(tx, isbn, at); err != nil {
		tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return existed, nil
}
