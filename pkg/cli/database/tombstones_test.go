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
	"testing"
	"time"

	"github.com/bookwormfood/bookworm/pkg/assert"
	"github.com/bookwormfood/bookworm/pkg/book"
)

func TestRemoveBook(t *testing.T) {
	db := InitTestMemoryDB(t)
	MustSaveBook(t, db, book.New("9780062457714", t0))

	existed, err := RemoveBook(db, "9780062457714", t0)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, existed, true, "existed mismatch")

	_, err = GetBook(db, "9780062457714")
	assert.ErrorIs(t, err, ErrNotFound, "book should be gone")

	ok, err := HasTombstone(db, "9780062457714")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, ok, true, "tombstone should be written")
}

func TestTombstones(t *testing.T) {
	db := InitTestMemoryDB(t)

	if err := PutTombstone(db, "9780000000002", t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := PutTombstone(db, "9780000000001", t0); err != nil {
		t.Fatal(err)
	}
	if err := PutTombstone(db, "9780000000001", t0); err != nil {
		t.Fatal(err)
	}

	isbns, err := GetTombstones(db)
	if err != nil {
		t.Fatal(err)
	}
	assert.DeepEqual(t, isbns, []string{"9780000000001", "9780000000002"}, "tombstones mismatch")

	if err := ClearTombstone(db, "9780000000001"); err != nil {
		t.Fatal(err)
	}

	ok, err := HasTombstone(db, "9780000000001")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, ok, false, "tombstone should be cleared")
}
