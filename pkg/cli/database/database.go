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

// Package database provides the durable on-device store of book records
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// StorageError is an error raised by the underlying database. It is fatal
// to the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(err error, op string) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError checks if the error chain contains a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// DB contains a connection to the database and, inside a transaction,
// the transaction every statement runs in
type DB struct {
	Conn *sql.DB
	Tx   *sql.Tx
}

// Open opens a connection to the sqlite database at the given path. The
// directory is created if missing.
func Open(dbPath string) (*DB, error) {
	if !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}

	// Every statement and transaction shares one connection, which makes
	// transactions serialize instead of failing with SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	return &DB{Conn: conn}, nil
}

// Begin begins a transaction
func (d *DB) Begin() (*DB, error) {
	if d.Tx != nil {
		return nil, errors.New("transaction already in progress")
	}

	tx, err := d.Conn.Begin()
	if err != nil {
		return nil, storageErr(err, "beginning a transaction")
	}

	return &DB{Conn: d.Conn, Tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.Tx == nil {
		return errors.New("no transaction in progress")
	}

	if err := d.Tx.Commit(); err != nil {
		return storageErr(err, "committing a transaction")
	}

	return nil
}

// Rollback rolls back the transaction. It is a no-op outside a transaction.
func (d *DB) Rollback() error {
	if d.Tx == nil {
		return nil
	}

	if err := d.Tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return storageErr(err, "rolling back a transaction")
	}

	return nil
}

// Exec executes a query without returning any rows
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.Tx != nil {
		return d.Tx.Exec(query, args...)
	}

	return d.Conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.Tx != nil {
		return d.Tx.Query(query, args...)
	}

	return d.Conn.Query(query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.Tx != nil {
		return d.Tx.QueryRow(query, args...)
	}

	return d.Conn.QueryRow(query, args...)
}

// Close closes the connection to the database
func (d *DB) Close() error {
	return d.Conn.Close()
}
