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
	"time"
)

// LookupCache persists metadata lookups that found nothing, so that the
// provider is not asked again before a cooldown passes
type LookupCache struct {
	DB *DB
}

// NewLookupCache returns a lookup cache backed by the given database
func NewLookupCache(db *DB) *LookupCache {
	return &LookupCache{DB: db}
}

// Get returns when a lookup of the ISBN last found nothing
func (c *LookupCache) Get(isbn string) (time.Time, bool, error) {
	var failedAt int64

	err := c.DB.QueryRow("SELECT failed_at FROM lookups WHERE isbn = ?", isbn).Scan(&failedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	} else if err != nil {
		return time.Time{}, false, storageErr(err, "finding lookup")
	}

	return time.Unix(0, failedAt).UTC(), true, nil
}

// Put records that a lookup of the ISBN found nothing at the given time
func (c *LookupCache) Put(isbn string, at time.Time) error {
	_, err := c.DB.Exec(`INSERT INTO lookups (isbn, failed_at, attempts) VALUES (?, ?, 1)
		ON CONFLICT(isbn) DO UPDATE SET failed_at = excluded.failed_at, attempts = attempts + 1`,
		isbn, at.UnixNano())
	if err != nil {
		return storageErr(err, "saving lookup")
	}

	return nil
}

// Delete forgets the failed lookups of the ISBN
func (c *LookupCache) Delete(isbn string) error {
	if _, err := c.DB.Exec("DELETE FROM lookups WHERE isbn = ?", isbn); err != nil {
		return storageErr(err, "deleting lookup")
	}

	return nil
}

// Attempts returns how many lookups of the ISBN found nothing
func (c *LookupCache) Attempts(isbn string) (int, error) {
	var n int

	err := c.DB.QueryRow("SELECT attempts FROM lookups WHERE isbn = ?", isbn).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, storageErr(err, "counting lookups")
	}

	return n, nil
}
