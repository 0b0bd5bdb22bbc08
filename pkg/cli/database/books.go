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
	"encoding/json"
	"time"

	"github.com/bookwormfood/bookworm/pkg/book"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is an error for a book that is not in the store
	ErrNotFound = errors.New("book not found")
	// ErrSkip is returned by a Mutator to leave the store untouched
	ErrSkip = errors.New("skip write")
	// ErrEmptyISBN is an error for a record without a key
	ErrEmptyISBN = errors.New("empty ISBN")
)

// Mutator receives the stored record, and whether it exists, and returns
// the record to store in its place
type Mutator func(b book.Book, found bool) (book.Book, error)

func scanBook(row interface{ Scan(...interface{}) error }) (book.Book, error) {
	var ret book.Book
	var data string

	if err := row.Scan(&data); err != nil {
		return ret, err
	}
	if err := json.Unmarshal([]byte(data), &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling book")
	}

	return ret, nil
}

// GetBook returns the book with the given ISBN
func GetBook(db *DB, isbn string) (book.Book, error) {
	b, err := scanBook(db.QueryRow("SELECT data FROM books WHERE isbn = ?", isbn))
	if err == sql.ErrNoRows {
		return b, errors.Wrapf(ErrNotFound, "isbn %s", isbn)
	} else if err != nil {
		return b, storageErr(err, "finding book")
	}

	return b, nil
}

// GetBooks returns every book in the store, most recently modified first
func GetBooks(db *DB) ([]book.Book, error) {
	rows, err := db.Query("SELECT data FROM books ORDER BY updated_at DESC, isbn ASC")
	if err != nil {
		return nil, storageErr(err, "querying books")
	}
	defer rows.Close()

	ret := []book.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, storageErr(err, "scanning book")
		}

		ret = append(ret, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterating books")
	}

	return ret, nil
}

// CountBooks returns the number of books in the store
func CountBooks(db *DB) (int, error) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM books").Scan(&count); err != nil {
		return 0, storageErr(err, "counting books")
	}

	return count, nil
}

// SaveBook writes the whole record, replacing any stored copy
func SaveBook(db *DB, b book.Book) error {
	if b.ISBN == "" {
		return ErrEmptyISBN
	}

	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "marshalling book")
	}

	now := time.Now().UnixNano()
	_, err = db.Exec(`INSERT INTO books (isbn, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(isbn) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		b.ISBN, string(data), now, b.TimestampUpdate.UnixNano())
	if err != nil {
		return storageErr(err, "saving book")
	}

	return nil
}

// UpdateBook reads the record, passes it to fn and stores the result in one
// transaction, so that no other write to the record interleaves. It returns
// the record as stored afterwards and whether it exists.
func UpdateBook(db *DB, isbn string, fn Mutator) (book.Book, bool, error) {
	if db.Tx != nil {
		return updateBook(db, isbn, fn)
	}

	tx, err := db.Begin()
	if err != nil {
		return book.Book{}, false, err
	}

	ret, found, err := updateBook(tx, isbn, fn)
	if err != nil {
		tx.Rollback()
		return ret, found, err
	}

	if err := tx.Commit(); err != nil {
		return ret, found, err
	}

	return ret, found, nil
}

func updateBook(tx *DB, isbn string, fn Mutator) (book.Book, bool, error) {
	current, err := GetBook(tx, isbn)
	found := true
	if errors.Is(err, ErrNotFound) {
		found = false
		current = book.Book{ISBN: isbn}
	} else if err != nil {
		return current, false, err
	}

	next, err := fn(current.Clone(), found)
	if errors.Is(err, ErrSkip) {
		return current, found, nil
	} else if err != nil {
		return current, found, err
	}

	next.ISBN = isbn
	if err := SaveBook(tx, next); err != nil {
		return current, found, err
	}

	return next, true, nil
}

// PutBook inserts or updates the record with the given ISBN. Fields set
// in b overwrite the stored ones; fields absent from b are preserved.
func PutBook(db *DB, b book.Book) (book.Book, error) {
	if b.ISBN == "" {
		return b, ErrEmptyISBN
	}

	ret, _, err := UpdateBook(db, b.ISBN, func(current book.Book, found bool) (book.Book, error) {
		if !found {
			return b, nil
		}

		return book.Overlay(current, b), nil
	})

	return ret, err
}

// DeleteBook deletes the book with the given ISBN. It is a no-op if the
// book does not exist. It returns whether a record was deleted.
func DeleteBook(db *DB, isbn string) (bool, error) {
	res, err := db.Exec("DELETE FROM books WHERE isbn = ?", isbn)
	if err != nil {
		return false, storageErr(err, "deleting book")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(err, "counting deleted rows")
	}

	return n > 0, nil
}
